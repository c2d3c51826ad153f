package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/event"
)

type eventApi struct {
	svc      *event.Service
	validate *validator.Validate
}

func registerEventAPI(g, ag *echo.Group, svc *event.Service, validate *validator.Validate) {
	api := eventApi{svc: svc, validate: validate}

	// public calendar: published upcoming events
	g.GET("/events", api.queryUpcoming)

	cg := ag.Group("/events")
	cg.POST("", api.create)
	cg.GET("", api.query)
	cg.DELETE("", api.destroyMultiple)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/publish", api.setPublished)
	dg.POST("/image", api.attachImage)
}

func (api *eventApi) queryUpcoming(ctx echo.Context) error {
	filter := new(event.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []event.Event{})
	}
	filter.Clean()

	items, err := api.svc.QueryUpcoming(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying upcoming events")
	}
	if items == nil {
		items = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *eventApi) create(ctx echo.Context) error {
	var data event.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *eventApi) query(ctx echo.Context) error {
	filter := new(event.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []event.Event{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	items, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if items == nil {
		items = []event.Event{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	e, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *eventApi) update(ctx echo.Context) error {
	e, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data event.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(e, api.validate); err != nil {
		return err
	}

	e, err = api.svc.Update(ctx.Request().Context(), e, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *eventApi) setPublished(ctx echo.Context) error {
	e, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data struct {
		Published bool `json:"published"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding published flag")
	}

	e, err = api.svc.SetPublished(ctx.Request().Context(), e.ID, data.Published)
	if err != nil {
		return errors.Wrap(err, "setting published flag")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *eventApi) attachImage(ctx echo.Context) error {
	e, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile("image")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "image", Error: "this file is required"})
	}
	data, err := readMultipartFile(fh)
	if err != nil {
		return errors.Wrap(err, "reading uploaded image")
	}

	e, err = api.svc.AttachImage(ctx.Request().Context(), e, fh.Filename, data)
	if err != nil {
		return errors.Wrap(err, "attaching image")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	e, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), e.ID); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting events")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) getObject(ctx echo.Context) (event.Event, error) {
	e, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == event.ErrNotFound {
			return event.Event{}, errHttpNotFound
		}
		return event.Event{}, errors.Wrap(err, "finding event by ID")
	}
	return e, nil
}
