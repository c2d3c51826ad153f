package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/album"
)

type albumApi struct {
	svc      *album.Service
	validate *validator.Validate
}

func registerAlbumAPI(g, ag *echo.Group, svc *album.Service, validate *validator.Validate) {
	api := albumApi{svc: svc, validate: validate}

	// public gallery
	g.GET("/albums", api.query)
	g.GET("/albums/:id", api.retrieve)

	cg := ag.Group("/albums")
	cg.POST("", api.create)
	cg.GET("", api.query)
	cg.DELETE("", api.destroyMultiple)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/photos", api.addPhoto)
	dg.DELETE("/photos/:photoID", api.removePhoto)
}

func (api *albumApi) create(ctx echo.Context) error {
	var data album.NewAlbum
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAlbum")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating album")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *albumApi) query(ctx echo.Context) error {
	filter := new(album.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []album.Album{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	items, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying albums")
	}
	if items == nil {
		items = []album.Album{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *albumApi) retrieve(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *albumApi) update(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data album.UpdateAlbum
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAlbum")
	}
	if err := data.Validate(a, api.validate); err != nil {
		return err
	}

	a, err = api.svc.Update(ctx.Request().Context(), a, data)
	if err != nil {
		return errors.Wrap(err, "updating album")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *albumApi) addPhoto(ctx echo.Context) error {
	a, err := api.getObject(ctx)
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
	caption := ctx.FormValue("caption")
	position, _ := strconv.Atoi(ctx.FormValue("position"))

	photo, err := api.svc.AddPhoto(ctx.Request().Context(), a, fh.Filename, caption, position, data)
	if err != nil {
		return errors.Wrap(err, "adding photo")
	}
	return ctx.JSON(http.StatusCreated, photo)
}

func (api *albumApi) removePhoto(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.RemovePhoto(ctx.Request().Context(), a.ID, ctx.Param("photoID")); err != nil {
		if errors.Cause(err) == album.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "removing photo")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *albumApi) destroy(ctx echo.Context) error {
	a, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), a.ID); err != nil {
		return errors.Wrap(err, "deleting album")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *albumApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting albums")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *albumApi) getObject(ctx echo.Context) (album.Album, error) {
	a, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == album.ErrNotFound {
			return album.Album{}, errHttpNotFound
		}
		return album.Album{}, errors.Wrap(err, "finding album by ID")
	}
	return a, nil
}
