package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core/club"
)

type clubApi struct {
	svc      *club.Service
	validate *validator.Validate
}

func registerClubAPI(g, ag *echo.Group, svc *club.Service, validate *validator.Validate) {
	api := clubApi{svc: svc, validate: validate}

	// public: active clubs only
	g.GET("/clubs", api.queryActive)

	cg := ag.Group("/clubs")
	cg.POST("", api.create)
	cg.GET("", api.query)
	cg.DELETE("", api.destroyMultiple)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *clubApi) queryActive(ctx echo.Context) error {
	filter := new(club.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []club.Club{})
	}
	filter.Clean()

	items, err := api.svc.QueryActive(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying active clubs")
	}
	if items == nil {
		items = []club.Club{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *clubApi) create(ctx echo.Context) error {
	var data club.NewClub
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClub")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating club")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *clubApi) query(ctx echo.Context) error {
	filter := new(club.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []club.Club{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	items, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying clubs")
	}
	if items == nil {
		items = []club.Club{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *clubApi) retrieve(ctx echo.Context) error {
	c, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *clubApi) update(ctx echo.Context) error {
	c, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data club.UpdateClub
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClub")
	}
	if err := data.Validate(c, api.validate); err != nil {
		return err
	}

	c, err = api.svc.Update(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "updating club")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *clubApi) destroy(ctx echo.Context) error {
	c, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting club")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *clubApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting clubs")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *clubApi) getObject(ctx echo.Context) (club.Club, error) {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == club.ErrNotFound {
			return club.Club{}, errHttpNotFound
		}
		return club.Club{}, errors.Wrap(err, "finding club by ID")
	}
	return c, nil
}
