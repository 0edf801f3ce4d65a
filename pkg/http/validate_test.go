package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rankRequest struct {
	Prices map[string]float64 `json:"prices" validate:"required,min=1,dive,keys,required,endkeys,gt=0"`
	Top    int                `json:"top" default:"6" validate:"gte=1,lte=50"`
	Since  string             `json:"since" validate:"omitempty,datetime=2006-01-02"`
}

func bind(t *testing.T, body string, req interface{}) interface{} {
	t.Helper()
	e := echo.New()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return ReadAndValidateRequest(e.NewContext(r, httptest.NewRecorder()), req)
}

func TestReadAndValidateRequest_AppliesDefaults(t *testing.T) {
	req := &rankRequest{}
	require.Nil(t, bind(t, `{"prices":{"Gold":1800}}`, req))
	assert.Equal(t, 6, req.Top)
}

func TestReadAndValidateRequest_ReportsWireNames(t *testing.T) {
	verr := bind(t, `{"prices":{},"since":"01/02/2020"}`, &rankRequest{})
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Code
	}
	assert.Equal(t, "ERR_MIN", fields["prices"])
	assert.Equal(t, "ERR_DATETIME", fields["since"])
}

func TestReadAndValidateRequest_BadJSON(t *testing.T) {
	verr := bind(t, `{"prices":`, &rankRequest{})
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	assert.Equal(t, "ERR_UNKNOWN", errs[0].Code)
}
