package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"MineWatch/internal/domain/models"
	"MineWatch/internal/usecase"
	xhttp "MineWatch/pkg/http"
	xlogger "MineWatch/pkg/logger"
)

// ResultsEchoHandler serves the last persisted analysis run.
type ResultsEchoHandler struct {
	logger  *xlogger.Logger
	reports *usecase.ReportQueryUseCase
}

func NewResultsEchoHandler(logger *xlogger.Logger, reports *usecase.ReportQueryUseCase) *ResultsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ResultsEchoHandler{logger: logger, reports: reports}
}

func (h *ResultsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/report", h.Report)
	g.GET("/commodities/:name", h.Commodity)
	g.POST("/forecast", h.Forecast)
}

// ForecastResponse is the re-ranked list for caller supplied prices.
type ForecastResponse struct {
	Ranking  []models.Forecast  `json:"ranking"`
	Excluded []models.Exclusion `json:"excluded,omitempty"`
}

func (h *ResultsEchoHandler) Report(c echo.Context) error {
	rep, err := h.reports.Latest(c.Request().Context())
	if err != nil {
		return h.fail(c, "report", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, rep)
}

func (h *ResultsEchoHandler) Commodity(c echo.Context) error {
	req := &models.CommodityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	view, err := h.reports.Commodity(c.Request().Context(), req.Name)
	if err != nil {
		return h.fail(c, "commodity", err)
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *ResultsEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ranking, excluded, err := h.reports.Reforecast(c.Request().Context(), req.Prices, req.Top)
	if errors.Is(err, models.ErrUnknownCommodity) {
		appErr := xhttp.BadRequestError(err.Error()).WithParam("supported", models.Commodities).WithError(err)
		return xhttp.AppErrorResponse(c, appErr)
	}
	if err != nil {
		return h.fail(c, "forecast", err)
	}
	return xhttp.SuccessResponse(c, ForecastResponse{Ranking: ranking, Excluded: excluded})
}

func (h *ResultsEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" usecase error", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrNoReport):
		return xhttp.NotFoundError("no analysis run has been stored yet").WithError(err)
	case errors.Is(err, models.ErrUnknownCommodity):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrNoPredictiveModel):
		return xhttp.NewAppError("ERR_NO_MODEL", "", err.Error(), http.StatusUnprocessableEntity).WithError(err)
	default:
		return xhttp.InternalError("failed to read results").WithError(err)
	}
}
