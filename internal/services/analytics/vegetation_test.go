package analytics

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "MineWatch/internal/domain/models"
)

var (
    from = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
    to   = time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)
    loc  = models.Location{Lat: -4.05, Lon: 137.11}
)

func TestVegetation_PostsRegionAndDecodesNulls(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, "/reduce", r.URL.Path)
        var req reduceRequest
        require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
        assert.Equal(t, reduceRequest{Lat: -4.05, Lon: 137.11, MineSizeM: 2000, ControlSizeM: 10000, Start: "2019-01-01", End: "2019-12-31"}, req)
        _, _ = w.Write([]byte(`{
            "mine":[{"t":"2019-01-01T10:00:00Z","mean":0.31},{"t":"2019-01-17T10:00:00Z","mean":null}],
            "control":[{"t":"2019-01-01T10:00:00Z","mean":0.72},{"t":"2019-01-17T10:00:00Z","mean":0.70}]
        }`))
    }))
    defer srv.Close()

    c := NewVegetationClient(VegetationConfig{URL: srv.URL, Timeout: time.Second, Attempts: 1}, nil, nil)
    s, err := c.Vegetation(context.Background(), loc, 2000, 10000, from, to)
    require.NoError(t, err)
    require.Len(t, s.Mine, 2)
    require.NotNil(t, s.Mine[0].Mean)
    assert.Equal(t, 0.31, *s.Mine[0].Mean)
    assert.Nil(t, s.Mine[1].Mean)
    assert.Equal(t, time.Date(2019, 1, 17, 10, 0, 0, 0, time.UTC), s.Mine[1].Time)
}

func TestVegetation_RetriesServerErrors(t *testing.T) {
    var hits int32
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if atomic.AddInt32(&hits, 1) < 3 {
            http.Error(w, "busy", http.StatusBadGateway)
            return
        }
        _, _ = w.Write([]byte(`{"mine":[{"t":"2019-01-01T00:00:00Z","mean":0.3}],"control":[{"t":"2019-01-01T00:00:00Z","mean":0.6}]}`))
    }))
    defer srv.Close()

    c := NewVegetationClient(VegetationConfig{URL: srv.URL, Timeout: time.Second, Attempts: 3}, nil, nil)
    _, err := c.Vegetation(context.Background(), loc, 2000, 10000, from, to)
    require.NoError(t, err)
    assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestVegetation_NoImageryIsSourceUnavailable(t *testing.T) {
    var hits int32
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        atomic.AddInt32(&hits, 1)
        http.Error(w, "outside coverage", http.StatusUnprocessableEntity)
    }))
    defer srv.Close()

    c := NewVegetationClient(VegetationConfig{URL: srv.URL, Timeout: time.Second, Attempts: 3}, nil, nil)
    _, err := c.Vegetation(context.Background(), loc, 2000, 10000, from, to)
    assert.True(t, errors.Is(err, models.ErrSourceUnavailable))
    // client errors are not retried
    assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

    empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        _, _ = w.Write([]byte(`{"mine":[],"control":[]}`))
    }))
    defer empty.Close()
    c = NewVegetationClient(VegetationConfig{URL: empty.URL, Timeout: time.Second, Attempts: 1}, nil, nil)
    _, err = c.Vegetation(context.Background(), loc, 2000, 10000, from, to)
    assert.True(t, errors.Is(err, models.ErrSourceUnavailable))
}
