package echoapi

import (
	"net/http"
	"path"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/document"
)

type documentApi struct {
	svc      *document.Service
	validate *validator.Validate
}

func registerDocumentAPI(g, ag *echo.Group, svc *document.Service, validate *validator.Validate) {
	api := documentApi{svc: svc, validate: validate}

	// public library
	g.GET("/documents", api.queryPublished)
	g.GET("/documents/:id/download", api.download)

	cg := ag.Group("/documents")
	cg.POST("", api.create)
	cg.GET("", api.query)
	cg.DELETE("", api.destroyMultiple)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/publish", api.setPublished)
}

func (api *documentApi) queryPublished(ctx echo.Context) error {
	filter := new(document.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []document.Document{})
	}
	filter.Clean()

	items, err := api.svc.QueryPublished(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying published documents")
	}
	if items == nil {
		items = []document.Document{}
	}
	return ctx.JSON(http.StatusOK, items)
}

// download streams the stored file and counts the download.
func (api *documentApi) download(ctx echo.Context) error {
	d, rc, err := api.svc.OpenForDownload(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == document.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "opening document for download")
	}
	defer rc.Close()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+path.Base(d.FilePath)+`"`)
	return ctx.Stream(http.StatusOK, echo.MIMEOctetStream, rc)
}

// create accepts a multipart form: a "file" upload plus title/category fields.
func (api *documentApi) create(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this file is required"})
	}
	data, err := readMultipartFile(fh)
	if err != nil {
		return errors.Wrap(err, "reading uploaded file")
	}

	nd := document.NewDocument{
		Title:    ctx.FormValue("title"),
		Category: ctx.FormValue("category"),
	}
	if err := nd.Validate(api.validate); err != nil {
		return err
	}

	d, err := api.svc.Create(ctx.Request().Context(), nd, fh.Filename, data)
	if err != nil {
		return errors.Wrap(err, "creating document")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *documentApi) query(ctx echo.Context) error {
	filter := new(document.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []document.Document{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	items, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying documents")
	}
	if items == nil {
		items = []document.Document{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *documentApi) retrieve(ctx echo.Context) error {
	d, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *documentApi) update(ctx echo.Context) error {
	d, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data document.UpdateDocument
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDocument")
	}
	if err := data.Validate(d, api.validate); err != nil {
		return err
	}

	d, err = api.svc.Update(ctx.Request().Context(), d, data)
	if err != nil {
		return errors.Wrap(err, "updating document")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *documentApi) setPublished(ctx echo.Context) error {
	d, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data struct {
		Published bool `json:"published"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding published flag")
	}

	d, err = api.svc.SetPublished(ctx.Request().Context(), d.ID, data.Published)
	if err != nil {
		return errors.Wrap(err, "setting published flag")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *documentApi) destroy(ctx echo.Context) error {
	d, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), d.ID); err != nil {
		return errors.Wrap(err, "deleting document")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *documentApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting documents")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *documentApi) getObject(ctx echo.Context) (document.Document, error) {
	d, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == document.ErrNotFound {
			return document.Document{}, errHttpNotFound
		}
		return document.Document{}, errors.Wrap(err, "finding document by ID")
	}
	return d, nil
}
