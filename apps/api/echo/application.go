package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aspirasi/relawan/core/application"
)

type applicationApi struct {
	svc      *application.Service
	validate *validator.Validate
}

func registerApplicationAPI(g, admin *echo.Group, svc *application.Service, validate *validator.Validate) {
	api := applicationApi{svc: svc, validate: validate}

	ag := g.Group("/applications")
	ag.POST("", api.submit)
	ag.GET("", api.listMine)
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/history", api.history)
	ag.POST("/:id/resubmit", api.resubmit)

	adm := admin.Group("/applications", adminMiddleware())
	adm.GET("", api.query)
	adm.PUT("/:id/status", api.transition)
}

// Handlers

func (api *applicationApi) submit(ctx echo.Context) error {
	var data application.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	app, err := api.svc.Submit(ctx.Request().Context(), data, usr)
	if err != nil {
		return errors.Wrap(err, "submitting application")
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *applicationApi) listMine(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	apps, err := api.svc.ListMine(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing applications")
	}
	if apps == nil {
		apps = []application.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *applicationApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	app, err := api.svc.Get(ctx.Request().Context(), id, usr)
	if err != nil {
		return errors.Wrap(err, "finding application")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) history(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	entries, err := api.svc.History(ctx.Request().Context(), id, usr)
	if err != nil {
		return errors.Wrap(err, "querying history")
	}
	views := make([]application.HistoryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, e.View())
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *applicationApi) resubmit(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data application.Resubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Resubmission")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	app, err := api.svc.Resubmit(ctx.Request().Context(), id, data, usr)
	if err != nil {
		return errors.Wrap(err, "resubmitting application")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) query(ctx echo.Context) error {
	filter := new(application.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []application.Application{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	apps, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings, usr)
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}
	if apps == nil {
		apps = []application.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *applicationApi) transition(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data application.StatusChange
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

	app, err := api.svc.Transition(ctx.Request().Context(), id, data, usr)
	if err != nil {
		return errors.Wrap(err, "changing application status")
	}
	return ctx.JSON(http.StatusOK, app)
}
