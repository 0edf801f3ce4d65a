package analytics

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "time"

    "MineWatch/internal/domain/models"
    srcmetrics "MineWatch/internal/service/metrics"
    "MineWatch/pkg/breaker"
    xhttp "MineWatch/pkg/http"
    applogger "MineWatch/pkg/logger"
    "MineWatch/pkg/util"
)

// VegetationConfig points at the satellite reduction service.
type VegetationConfig struct {
    URL      string        `yaml:"url" default:"http://localhost:8090" validate:"required,url"`
    Timeout  time.Duration `yaml:"timeout" default:"120s"`
    Attempts int           `yaml:"attempts" default:"3" validate:"gte=1,lte=10"`
}

// VegetationClient asks the reduction service for mean vegetation index
// series over a mine footprint and its surrounding control region.
type VegetationClient struct {
    base     *HTTPServiceBase
    attempts int
    log      *applogger.Logger
}

func NewVegetationClient(cfg VegetationConfig, br *breaker.Breaker, log *applogger.Logger) *VegetationClient {
    if log == nil {
        log = applogger.Nop()
    }
    return &VegetationClient{
        base:     NewHTTPServiceBase(cfg.URL, cfg.Timeout, br),
        attempts: cfg.Attempts,
        log:      log,
    }
}

type reduceRequest struct {
    Lat          float64 `json:"lat"`
    Lon          float64 `json:"lon"`
    MineSizeM    float64 `json:"mine_size_m"`
    ControlSizeM float64 `json:"control_size_m"`
    Start        string  `json:"start"`
    End          string  `json:"end"`
}

type reduceResponse struct {
    Mine    []models.VegetationReading `json:"mine"`
    Control []models.VegetationReading `json:"control"`
}

// Vegetation implements repository.VegetationSource.
func (c *VegetationClient) Vegetation(ctx context.Context, loc models.Location, mineSize, controlSize float64, from, to time.Time) (*models.VegetationSeries, error) {
    req := reduceRequest{
        Lat:          loc.Lat,
        Lon:          loc.Lon,
        MineSizeM:    mineSize,
        ControlSizeM: controlSize,
        Start:        util.FormatDate(from),
        End:          util.FormatDate(to),
    }
    var resp reduceResponse
    start := time.Now()
    err := c.base.PostJSONWithRetry(ctx, "/reduce", req, &resp, c.attempts)
    srcmetrics.ObserveCall("satellite", start, err)
    if err != nil {
        if xhttp.IsStatus(err, http.StatusNotFound) || xhttp.IsStatus(err, http.StatusUnprocessableEntity) {
            return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
        }
        if errors.Is(err, breaker.ErrOpen) {
            return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
        }
        return nil, err
    }
    if len(resp.Mine) == 0 || len(resp.Control) == 0 {
        return nil, fmt.Errorf("%w: no imagery at %.4f,%.4f", models.ErrSourceUnavailable, loc.Lat, loc.Lon)
    }
    c.log.Debug("vegetation reduced",
        applogger.Float64("lat", loc.Lat),
        applogger.Float64("lon", loc.Lon),
        applogger.Int("mine_readings", len(resp.Mine)),
        applogger.Int("control_readings", len(resp.Control)),
        applogger.Duration("took_ms", time.Since(start)),
    )
    return &models.VegetationSeries{Mine: resp.Mine, Control: resp.Control}, nil
}
