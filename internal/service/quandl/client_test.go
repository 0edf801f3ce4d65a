package quandl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MineWatch/internal/domain/models"
)

const goldBody = `{"dataset_data":{"column_names":["Date","USD (AM)","USD (PM)"],"data":[
["2020-01-02",1520.0,1527.1],
["2020-01-03",1540.0,null],
["2020-01-06",1566.2,1568.3]
]}}`

func newClient(t *testing.T, url string) *Client {
	c, err := New(Config{
		BaseURL:  url,
		APIKey:   "secret",
		Datasets: map[string]Dataset{"gold": {Code: "LBMA/GOLD", Column: "USD (PM)"}, "Coal": {Code: "ODA/PCOALAU_USD"}},
	}, nil, nil, nil)
	require.NoError(t, err)
	return c
}

func TestClient_Prices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/datasets/LBMA/GOLD/data.json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2020-01-01", q.Get("start_date"))
		assert.Equal(t, "2020-01-31", q.Get("end_date"))
		assert.Equal(t, "asc", q.Get("order"))
		assert.Equal(t, "secret", q.Get("api_key"))
		_, _ = w.Write([]byte(goldBody))
	}))
	defer srv.Close()

	obs, err := newClient(t, srv.URL).Prices(context.Background(), models.Gold,
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, models.PriceObservation{Date: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), Price: 1527.1}, obs[0])
	assert.Equal(t, 1568.3, obs[1].Price)
}

func TestClient_Latest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		_, _ = w.Write([]byte(`{"dataset_data":{"column_names":["Date","Value"],"data":[["2023-03-01",140.5],["2023-02-01",150.0]]}}`))
	}))
	defer srv.Close()

	o, err := newClient(t, srv.URL).Latest(context.Background(), models.Coal)
	require.NoError(t, err)
	assert.Equal(t, 140.5, o.Price)
	assert.Equal(t, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), o.Date)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/datasets/LBMA/GOLD/data.json":
			http.Error(w, `{"quandl_error":{"code":"QECx02"}}`, http.StatusNotFound)
		default:
			_, _ = w.Write([]byte(`{"dataset_data":{"column_names":["Date","Other"],"data":[]}}`))
		}
	}))
	defer srv.Close()
	c := newClient(t, srv.URL)
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.Prices(context.Background(), models.Gold, day, day)
	assert.True(t, errors.Is(err, models.ErrSourceUnavailable))

	_, err = c.Prices(context.Background(), models.Coal, day, day)
	assert.True(t, errors.Is(err, models.ErrSourceUnavailable))

	_, err = c.Prices(context.Background(), models.Silver, day, day)
	assert.True(t, errors.Is(err, models.ErrUnknownCommodity))
}

func TestNew_RejectsUnknownCommodity(t *testing.T) {
	_, err := New(Config{BaseURL: "http://x", Datasets: map[string]Dataset{"Tin": {Code: "X"}}}, nil, nil, nil)
	assert.True(t, errors.Is(err, models.ErrUnknownCommodity))
}
