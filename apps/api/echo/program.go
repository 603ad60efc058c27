package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aspirasi/relawan/core/program"
	"github.com/aspirasi/relawan/core/user"
)

type programApi struct {
	svc      *program.Service
	validate *validator.Validate
}

// ProgramView is a Program with its current availability.
type ProgramView struct {
	program.Program
	RemainingQuota int  `json:"remaining_quota"`
	Available      bool `json:"available"`
}

func registerProgramAPI(g, admin *echo.Group, svc *program.Service, validate *validator.Validate) {
	api := programApi{svc: svc, validate: validate}

	pg := g.Group("/programs")
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)

	ag := admin.Group("/programs", adminMiddleware(user.RoleAdmin))
	ag.POST("", api.create)
	ag.PUT("/:id", api.update)
}

func (api *programApi) view(p program.Program) ProgramView {
	return ProgramView{Program: p, RemainingQuota: p.RemainingQuota(), Available: api.svc.IsAvailable(p)}
}

// Handlers

func (api *programApi) query(ctx echo.Context) error {
	filter := new(program.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []ProgramView{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	programs, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying programs")
	}
	views := make([]ProgramView, 0, len(programs))
	for _, p := range programs {
		views = append(views, api.view(p))
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *programApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding program")
	}
	return ctx.JSON(http.StatusOK, api.view(p))
}

func (api *programApi) create(ctx echo.Context) error {
	var data program.NewProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgram")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating program")
	}
	return ctx.JSON(http.StatusCreated, api.view(p))
}

func (api *programApi) update(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	orig, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding program")
	}

	var data program.UpdateProgram
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProgram")
	}
	if err = data.Validate(orig, api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating program")
	}
	return ctx.JSON(http.StatusOK, api.view(p))
}
