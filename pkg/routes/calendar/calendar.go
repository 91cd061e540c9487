package calendar

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/laurel/pkg/appcontext"
	"github.com/Ramsey-B/laurel/pkg/records"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Register registers the calendar feed route
func Register(g *echo.Group) {
	g.GET("", Feed)
}

// Feed returns every scheduled occasion in the requested date range,
// regardless of record type.
func Feed(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "calendar_handler.Feed")
	defer span.End()

	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	from := c.QueryParam("from")
	to := c.QueryParam("to")

	ctx, svc, err := ectoinject.GetContext[*records.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get records service")
	}

	result, err := svc.Calendar(ctx, tenantID, from, to)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
