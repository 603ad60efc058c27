package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aspirasi/relawan/core/complaint"
)

type complaintApi struct {
	svc      *complaint.Service
	validate *validator.Validate
}

func registerComplaintAPI(g, admin *echo.Group, svc *complaint.Service, validate *validator.Validate) {
	api := complaintApi{svc: svc, validate: validate}

	cg := g.Group("/complaints")
	cg.POST("", api.open)
	cg.GET("", api.listMine)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.POST("/:id/feedback", api.feedback)

	adm := admin.Group("/complaints", adminMiddleware())
	adm.GET("", api.query)
	adm.PUT("/:id/status", api.updateStatus)
}

// Handlers

func (api *complaintApi) open(ctx echo.Context) error {
	var data complaint.NewComplaint
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComplaint")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	c, err := api.svc.Open(ctx.Request().Context(), data, usr)
	if err != nil {
		return errors.Wrap(err, "opening complaint")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *complaintApi) listMine(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	complaints, err := api.svc.ListMine(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing complaints")
	}
	if complaints == nil {
		complaints = []complaint.Complaint{}
	}
	return ctx.JSON(http.StatusOK, complaints)
}

func (api *complaintApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.Get(ctx.Request().Context(), id, usr)
	if err != nil {
		return errors.Wrap(err, "finding complaint")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *complaintApi) update(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data complaint.UpdateComplaint
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateComplaint")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	c, err := api.svc.Update(ctx.Request().Context(), id, data, usr)
	if err != nil {
		return errors.Wrap(err, "updating complaint")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *complaintApi) feedback(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data complaint.Feedback
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Feedback")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	c, err := api.svc.SubmitFeedback(ctx.Request().Context(), id, data, usr)
	if err != nil {
		return errors.Wrap(err, "submitting feedback")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *complaintApi) query(ctx echo.Context) error {
	filter := new(complaint.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []complaint.Complaint{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	complaints, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings, usr)
	if err != nil {
		return errors.Wrap(err, "querying complaints")
	}
	if complaints == nil {
		complaints = []complaint.Complaint{}
	}
	return ctx.JSON(http.StatusOK, complaints)
}

func (api *complaintApi) updateStatus(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data complaint.StatusChange
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusChange")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	c, err := api.svc.UpdateStatus(ctx.Request().Context(), id, data, usr)
	if err != nil {
		return errors.Wrap(err, "updating complaint status")
	}
	return ctx.JSON(http.StatusOK, c)
}
