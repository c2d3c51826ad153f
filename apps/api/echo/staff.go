package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/staff"
)

type staffApi struct {
	svc      *staff.Service
	validate *validator.Validate
}

func registerStaffAPI(g, ag *echo.Group, svc *staff.Service, validate *validator.Validate) {
	api := staffApi{svc: svc, validate: validate}

	// public: active staff profiles only
	g.GET("/staff", api.queryActive)

	cg := ag.Group("/staff")
	cg.POST("", api.create)
	cg.GET("", api.query)
	cg.DELETE("", api.destroyMultiple)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/photo", api.attachPhoto)
}

func (api *staffApi) queryActive(ctx echo.Context) error {
	filter := new(staff.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []staff.Member{})
	}
	filter.Clean()

	items, err := api.svc.QueryActive(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying active staff")
	}
	if items == nil {
		items = []staff.Member{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *staffApi) create(ctx echo.Context) error {
	var data staff.NewMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating staff member")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *staffApi) query(ctx echo.Context) error {
	filter := new(staff.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []staff.Member{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	items, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying staff")
	}
	if items == nil {
		items = []staff.Member{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *staffApi) retrieve(ctx echo.Context) error {
	m, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *staffApi) update(ctx echo.Context) error {
	m, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data staff.UpdateMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMember")
	}
	if err := data.Validate(m, api.validate); err != nil {
		return err
	}

	m, err = api.svc.Update(ctx.Request().Context(), m, data)
	if err != nil {
		return errors.Wrap(err, "updating staff member")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *staffApi) attachPhoto(ctx echo.Context) error {
	m, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile("photo")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "photo", Error: "this file is required"})
	}
	data, err := readMultipartFile(fh)
	if err != nil {
		return errors.Wrap(err, "reading uploaded photo")
	}

	m, err = api.svc.AttachPhoto(ctx.Request().Context(), m, fh.Filename, data)
	if err != nil {
		return errors.Wrap(err, "attaching photo")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *staffApi) destroy(ctx echo.Context) error {
	m, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), m.ID); err != nil {
		return errors.Wrap(err, "deleting staff member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *staffApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting staff members")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *staffApi) getObject(ctx echo.Context) (staff.Member, error) {
	m, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == staff.ErrNotFound {
			return staff.Member{}, errHttpNotFound
		}
		return staff.Member{}, errors.Wrap(err, "finding staff member by ID")
	}
	return m, nil
}
