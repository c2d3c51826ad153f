package echoapi

import (
	"io/ioutil"
	"mime/multipart"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/tc"
	appfs "github.com/mwalimu/shule/fs"
)

const importTemplatePath = "templates/tc_import_template.csv"

type tcApi struct {
	svc      tc.ServiceInterface
	conf     *core.Config
	validate *validator.Validate
}

func registerTcAPI(g, ag *echo.Group, svc tc.ServiceInterface, conf *core.Config, validate *validator.Validate) {
	api := tcApi{svc: svc, conf: conf, validate: validate}

	// public verification endpoint
	g.GET("/tc/verify", api.verify)

	tg := ag.Group("/tc")
	tg.POST("", api.create)
	tg.GET("", api.query)
	tg.DELETE("", api.destroyMultiple)
	tg.POST("/import", api.bulkImport)
	tg.GET("/import/template", api.importTemplate)

	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/verify", api.setVerified)
	dg.POST("/document", api.attachDocument)
}

// Handlers

func (api *tcApi) verify(ctx echo.Context) error {
	number := core.CleanString(ctx.QueryParam("tc_number"))
	if number == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "tc_number", Error: "this field is required"})
	}
	rec, err := api.svc.GetByNumber(ctx.Request().Context(), number)
	if err != nil {
		if errors.Cause(err) == tc.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding record by number")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *tcApi) create(ctx echo.Context) error {
	var data tc.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	rec, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating record")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *tcApi) query(ctx echo.Context) error {
	filter := new(tc.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []tc.Record{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	recs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	if recs == nil {
		recs = []tc.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *tcApi) retrieve(ctx echo.Context) error {
	rec, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *tcApi) update(ctx echo.Context) error {
	rec, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data tc.UpdateRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}
	if err := data.Validate(rec, api.validate, api.svc); err != nil {
		return err
	}

	rec, err = api.svc.Update(ctx.Request().Context(), rec, data)
	if err != nil {
		return errors.Wrap(err, "updating record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *tcApi) setVerified(ctx echo.Context) error {
	rec, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data struct {
		Verified bool `json:"verified"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding verified flag")
	}

	rec, err = api.svc.SetVerified(ctx.Request().Context(), rec.ID, data.Verified)
	if err != nil {
		return errors.Wrap(err, "setting verified flag")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *tcApi) attachDocument(ctx echo.Context) error {
	rec, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile("document")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "document", Error: "this file is required"})
	}
	data, err := readMultipartFile(fh)
	if err != nil {
		return errors.Wrap(err, "reading uploaded document")
	}

	rec, err = api.svc.AttachDocument(ctx.Request().Context(), rec, fh.Filename, data)
	if err != nil {
		return errors.Wrap(err, "attaching document")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *tcApi) destroy(ctx echo.Context) error {
	rec, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), rec.ID); err != nil {
		return errors.Wrap(err, "deleting record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *tcApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting records")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// bulkImport accepts a multipart form with a "csv" file and a "archive" ZIP
// file and reconciles them into TC records. The response is the outcome
// summary; fatal input problems come back as 400s before any row commits.
func (api *tcApi) bulkImport(ctx echo.Context) error {
	csvFh, err := ctx.FormFile("csv")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "csv", Error: "this file is required"})
	}
	zipFh, err := ctx.FormFile("archive")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "archive", Error: "this file is required"})
	}

	// reject oversized uploads before opening anything
	if csvFh.Size > api.conf.Import.MaxCSVSize {
		return core.NewValidationError(tc.ErrCSVTooLarge, core.FieldError{Field: "csv", Error: tc.ErrCSVTooLarge.Error()})
	}
	if zipFh.Size > api.conf.Import.MaxArchiveSize {
		return core.NewValidationError(tc.ErrArchiveTooLarge, core.FieldError{Field: "archive", Error: tc.ErrArchiveTooLarge.Error()})
	}

	csvFile, err := csvFh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded CSV")
	}
	defer csvFile.Close()

	zipFile, err := zipFh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded archive")
	}
	defer zipFile.Close()

	outcome, err := api.svc.Import(ctx.Request().Context(), tc.ImportOptions{
		CSV:         csvFile,
		CSVSize:     csvFh.Size,
		Archive:     zipFile,
		ArchiveSize: zipFh.Size,
	})
	if err != nil {
		// fatal import errors are input problems: bad header, corrupt
		// archive, oversized files
		return core.NewValidationError(err)
	}
	return ctx.JSON(http.StatusOK, outcome)
}

func (api *tcApi) importTemplate(ctx echo.Context) error {
	data, err := appfs.FS.ReadFile(importTemplatePath)
	if err != nil {
		return errors.Wrap(err, "reading import template")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="tc_import_template.csv"`)
	return ctx.Blob(http.StatusOK, "text/csv", data)
}

func (api *tcApi) getObject(ctx echo.Context) (tc.Record, error) {
	rec, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == tc.ErrNotFound {
			return tc.Record{}, errHttpNotFound
		}
		return tc.Record{}, errors.Wrap(err, "finding record by ID")
	}
	return rec, nil
}

type DestroyMultipleRequest struct {
	IDs []string `query:"id"`
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ioutil.ReadAll(f)
}
