package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/achievement"
)

type achievementApi struct {
	svc      *achievement.Service
	validate *validator.Validate
}

func registerAchievementAPI(g, ag *echo.Group, svc *achievement.Service, validate *validator.Validate) {
	api := achievementApi{svc: svc, validate: validate}

	// public: published achievements only
	g.GET("/achievements", api.queryPublished)

	cg := ag.Group("/achievements")
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

func (api *achievementApi) queryPublished(ctx echo.Context) error {
	filter := new(achievement.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []achievement.Achievement{})
	}
	filter.Clean()

	items, err := api.svc.QueryPublished(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying published achievements")
	}
	if items == nil {
		items = []achievement.Achievement{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *achievementApi) create(ctx echo.Context) error {
	var data achievement.NewAchievement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAchievement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating achievement")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *achievementApi) query(ctx echo.Context) error {
	filter := new(achievement.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []achievement.Achievement{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	items, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying achievements")
	}
	if items == nil {
		items = []achievement.Achievement{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *achievementApi) retrieve(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *achievementApi) update(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data achievement.UpdateAchievement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAchievement")
	}
	if err := data.Validate(a, api.validate); err != nil {
		return err
	}

	a, err = api.svc.Update(ctx.Request().Context(), a, data)
	if err != nil {
		return errors.Wrap(err, "updating achievement")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *achievementApi) setPublished(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data struct {
		Published bool `json:"published"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding published flag")
	}

	a, err = api.svc.SetPublished(ctx.Request().Context(), a.ID, data.Published)
	if err != nil {
		return errors.Wrap(err, "setting published flag")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *achievementApi) attachImage(ctx echo.Context) error {
	a, err := api.getObject(ctx)
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

	a, err = api.svc.AttachImage(ctx.Request().Context(), a, fh.Filename, data)
	if err != nil {
		return errors.Wrap(err, "attaching image")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *achievementApi) destroy(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), a.ID); err != nil {
		return errors.Wrap(err, "deleting achievement")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *achievementApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting achievements")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *achievementApi) getObject(ctx echo.Context) (achievement.Achievement, error) {
	a, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == achievement.ErrNotFound {
			return achievement.Achievement{}, errHttpNotFound
		}
		return achievement.Achievement{}, errors.Wrap(err, "finding achievement by ID")
	}
	return a, nil
}
