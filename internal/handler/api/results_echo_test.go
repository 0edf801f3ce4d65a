package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MineWatch/internal/domain/models"
	"MineWatch/internal/usecase"
)

type staticReader struct {
	rep *models.Report
	err error
}

func (r staticReader) LatestReport(context.Context) (*models.Report, error) { return r.rep, r.err }

func sampleReport() *models.Report {
	return &models.Report{
		RunID: "run-1",
		Models: []models.CommodityModel{
			{Commodity: models.Gold, BestLag: 14, Model: &models.RegressionModel{Slope: 0.0005, Intercept: 0.1, RSquared: 0.3, N: 40}},
			{Commodity: models.Copper, BestLag: 30, Model: &models.RegressionModel{Slope: 0.0001, Intercept: 0.2, RSquared: 0.6, N: 25}},
		},
		Ranking: []models.Forecast{{Rank: 1, Commodity: models.Gold, BestLag: 14, PredictedGrowth: 1.0}},
	}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, reader staticReader, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	NewResultsEchoHandler(nil, usecase.NewReportQueryUseCase(reader)).RegisterRoutes(e)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestReport(t *testing.T) {
	rec, env := serve(t, staticReader{rep: sampleReport()}, http.MethodGet, "/api/v1/report", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var rep models.Report
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	assert.Equal(t, "run-1", rep.RunID)
	assert.Len(t, rep.Models, 2)
}

func TestReport_NotStoredYet(t *testing.T) {
	rec, env := serve(t, staticReader{err: models.ErrNoReport}, http.MethodGet, "/api/v1/report", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.Status)
}

func TestReport_ReaderFailure(t *testing.T) {
	rec, _ := serve(t, staticReader{err: errors.New("disk")}, http.MethodGet, "/api/v1/report", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCommodity(t *testing.T) {
	rec, env := serve(t, staticReader{rep: sampleReport()}, http.MethodGet, "/api/v1/commodities/gold", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view usecase.CommodityView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 14, view.Model.BestLag)
	require.NotNil(t, view.Forecast)

	rec, _ = serve(t, staticReader{rep: sampleReport()}, http.MethodGet, "/api/v1/commodities/Lead", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForecast(t *testing.T) {
	body := `{"prices": {"Gold": 1800, "Copper": 9000}, "top": 1}`
	rec, env := serve(t, staticReader{rep: sampleReport()}, http.MethodPost, "/api/v1/forecast", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ForecastResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Ranking, 1)
	// Gold 0.1+0.0005*1800 = 1.0, Copper 0.2+0.0001*9000 = 1.1
	assert.Equal(t, models.Copper, resp.Ranking[0].Commodity)
	assert.Equal(t, 1, resp.Ranking[0].Rank)
}

func TestForecast_Validation(t *testing.T) {
	rec, _ := serve(t, staticReader{rep: sampleReport()}, http.MethodPost, "/api/v1/forecast", `{"prices": {}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, staticReader{rep: sampleReport()}, http.MethodPost, "/api/v1/forecast", `{"prices": {"Gold": -5}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, staticReader{rep: sampleReport()}, http.MethodPost, "/api/v1/forecast", `{"prices": {"Platinum": 900}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForecast_NoUsableModel(t *testing.T) {
	rec, _ := serve(t, staticReader{rep: sampleReport()}, http.MethodPost, "/api/v1/forecast", `{"prices": {"Lead": 2000}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
