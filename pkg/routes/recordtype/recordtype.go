package recordtype

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/laurel/internal/repositories/recordtype"
	"github.com/Ramsey-B/laurel/pkg/appcontext"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

var validate = validator.New()

// Register registers record type routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.POST("", Create)
	g.GET("/:id", Get)
	g.PUT("/:id", Update)
	g.DELETE("/:id", Delete)
	g.POST("/:id/fields", CreateField)
	g.DELETE("/:id/fields/:fieldId", DeleteField)
}

// List returns all record types for the tenant
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "recordtype_handler.List")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	ctx, repo, err := ectoinject.GetContext[recordtype.RecordTypeRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, totalCount, err := repo.List(ctx, tenantID, page, pageSize)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list record types")
	}

	return c.JSON(http.StatusOK, models.RecordTypeListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	})
}

// Create creates a new record type
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "recordtype_handler.Create")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req models.CreateRecordTypeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[recordtype.RecordTypeRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if req.Slug != "" {
		existing, err := repo.GetBySlug(ctx, tenantID, req.Slug)
		if err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to check existing record type")
		}
		if existing != nil {
			return httperror.NewHTTPError(http.StatusConflict, "record type with this slug already exists")
		}
	}

	result, err := repo.Create(ctx, tenantID, req)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create record type")
	}

	return c.JSON(http.StatusCreated, result)
}

// Get returns a single record type by ID with its field definitions
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "recordtype_handler.Get")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[recordtype.RecordTypeRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get record type")
	}
	if result == nil {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "record type %s not found", id)
	}

	return c.JSON(http.StatusOK, result)
}

// Update updates a record type's metadata
func Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "recordtype_handler.Update")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	var req models.UpdateRecordTypeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, repo, err := ectoinject.GetContext[recordtype.RecordTypeRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Update(ctx, tenantID, id, req)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update record type")
	}
	if result == nil {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "record type %s not found", id)
	}

	return c.JSON(http.StatusOK, result)
}

// Delete soft-deletes a record type. Existing records keep their data; the
// type stops appearing in listings and rejects new records.
func Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "recordtype_handler.Delete")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[recordtype.RecordTypeRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.Delete(ctx, tenantID, id); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete record type")
	}

	return c.NoContent(http.StatusNoContent)
}

// CreateField adds a field definition to a record type
func CreateField(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "recordtype_handler.CreateField")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	var req models.CreateFieldDefinitionRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[recordtype.RecordTypeRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	rt, err := repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get record type")
	}
	if rt == nil {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "record type %s not found", id)
	}

	result, err := repo.CreateField(ctx, tenantID, id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// DeleteField soft-deletes a field definition. Stored values for the field
// remain on existing records but disappear from the resolved view.
func DeleteField(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "recordtype_handler.DeleteField")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")
	fieldID := c.Param("fieldId")

	ctx, repo, err := ectoinject.GetContext[recordtype.RecordTypeRepository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	rt, err := repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get record type")
	}
	if rt == nil {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "record type %s not found", id)
	}

	if err := repo.DeleteField(ctx, tenantID, id, fieldID); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete field definition")
	}

	return c.NoContent(http.StatusNoContent)
}
