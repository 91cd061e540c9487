package record

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/laurel/pkg/appcontext"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/records"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

var validate = validator.New()

// Register registers record routes on the API group. Creation and listing
// hang off the owning record type; single-record operations are flat.
func Register(g *echo.Group) {
	g.POST("/record-types/:id/records", Create)
	g.GET("/record-types/:id/records", List)
	g.GET("/records/:id", Get)
	g.PUT("/records/:id", Update)
	g.DELETE("/records/:id", Delete)
	g.PUT("/records/:id/occasions", ReplaceOccasions)
	g.GET("/records/:id/history", History)
}

// Create creates a record with its first batch of occasions
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "record_handler.Create")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	typeID := c.Param("id")

	var req models.CreateRecordRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*records.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get records service")
	}

	result, err := svc.Create(ctx, tenantID, typeID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// List pages through a record type's records
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "record_handler.List")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if offset < 0 {
		offset = 0
	}

	query := records.ListQuery{
		RecordTypeID: c.Param("id"),
		Search:       c.QueryParam("search"),
		DateFrom:     c.QueryParam("date_from"),
		DateTo:       c.QueryParam("date_to"),
		Sort:         c.QueryParam("sort"),
		Offset:       offset,
		Limit:        limit,
	}

	ctx, svc, err := ectoinject.GetContext[*records.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get records service")
	}

	result, err := svc.List(ctx, tenantID, query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Get returns one record with its type, occasions, and resolved fields
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "record_handler.Get")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*records.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get records service")
	}

	result, err := svc.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if result == nil {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "record %s not found", id)
	}

	return c.JSON(http.StatusOK, result)
}

// Update replaces a record's field values
func Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "record_handler.Update")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	var req models.UpdateRecordRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*records.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get records service")
	}

	result, err := svc.Update(ctx, tenantID, id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Delete removes a record and its occasions
func Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "record_handler.Delete")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*records.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get records service")
	}

	if err := svc.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// ReplaceOccasions swaps a record's occasion batch
func ReplaceOccasions(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "record_handler.ReplaceOccasions")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	var req models.ReplaceOccasionsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*records.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get records service")
	}

	result, err := svc.ReplaceOccasions(ctx, tenantID, id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"occasions": result})
}

// History returns a record's audit entries
func History(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "record_handler.History")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if offset < 0 {
		offset = 0
	}

	ctx, svc, err := ectoinject.GetContext[*records.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get records service")
	}

	result, err := svc.History(ctx, tenantID, id, offset, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
