// Package quandl fetches commodity price time series from a Quandl-style
// dataset API (Nasdaq Data Link v3).
package quandl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MineWatch/internal/domain/models"
	srcmetrics "MineWatch/internal/service/metrics"
	"MineWatch/internal/service/ratelimit"
	"MineWatch/pkg/breaker"
	xhttp "MineWatch/pkg/http"
	applogger "MineWatch/pkg/logger"
	"MineWatch/pkg/util"
)

// Dataset names the series and value column for one commodity.
type Dataset struct {
	Code   string `yaml:"code" validate:"required"`
	Column string `yaml:"column"`
}

// Config for the price client. Datasets is keyed by commodity name.
type Config struct {
	BaseURL  string             `yaml:"base_url" default:"https://data.nasdaq.com/api/v3" validate:"required,url"`
	APIKey   string             `yaml:"api_key"`
	Timeout  time.Duration      `yaml:"timeout" default:"20s"`
	Datasets map[string]Dataset `yaml:"datasets" validate:"dive"`
}

// DefaultDatasets cover the whole commodity vocabulary.
func DefaultDatasets() map[string]Dataset {
	return map[string]Dataset{
		"Gold":    {Code: "LBMA/GOLD", Column: "USD (PM)"},
		"Silver":  {Code: "LBMA/SILVER", Column: "USD"},
		"Copper":  {Code: "CHRIS/CME_HG1", Column: "Settle"},
		"Uranium": {Code: "ODA/PURAN_USD", Column: "Value"},
		"Coal":    {Code: "ODA/PCOALAU_USD", Column: "Value"},
		"Lead":    {Code: "ODA/PLEAD_USD", Column: "Value"},
	}
}

// Client implements repository.PriceSource.
type Client struct {
	cfg      Config
	host     string
	datasets map[models.Commodity]Dataset
	http     *xhttp.Client
	limiter  *ratelimit.Limiter
	breaker  *breaker.Breaker
	log      *applogger.Logger
}

func New(cfg Config, limiter *ratelimit.Limiter, br *breaker.Breaker, log *applogger.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("quandl base url: %w", err)
	}
	if len(cfg.Datasets) == 0 {
		cfg.Datasets = DefaultDatasets()
	}
	datasets := make(map[models.Commodity]Dataset, len(cfg.Datasets))
	for name, ds := range cfg.Datasets {
		c, err := models.ParseCommodity(name)
		if err != nil {
			return nil, fmt.Errorf("quandl datasets: %w", err)
		}
		datasets[c] = ds
	}
	if log == nil {
		log = applogger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{
		cfg:      cfg,
		host:     u.Host,
		datasets: datasets,
		http:     xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter:  limiter,
		breaker:  br,
		log:      log,
	}, nil
}

type datasetResponse struct {
	DatasetData struct {
		ColumnNames []string        `json:"column_names"`
		Data        [][]interface{} `json:"data"`
	} `json:"dataset_data"`
}

// Prices returns observations within [from, to], ascending by date.
func (c *Client) Prices(ctx context.Context, commodity models.Commodity, from, to time.Time) ([]models.PriceObservation, error) {
	params := map[string][]string{
		"start_date": {util.FormatDate(from)},
		"end_date":   {util.FormatDate(to)},
		"order":      {"asc"},
	}
	obs, err := c.fetch(ctx, commodity, params)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no %s prices between %s and %s", models.ErrSourceUnavailable,
			commodity, util.FormatDate(from), util.FormatDate(to))
	}
	return obs, nil
}

// Latest returns the most recent observation.
func (c *Client) Latest(ctx context.Context, commodity models.Commodity) (models.PriceObservation, error) {
	obs, err := c.fetch(ctx, commodity, map[string][]string{"order": {"desc"}, "limit": {"5"}})
	if err != nil {
		return models.PriceObservation{}, err
	}
	if len(obs) == 0 {
		return models.PriceObservation{}, fmt.Errorf("%w: no %s prices", models.ErrSourceUnavailable, commodity)
	}
	latest := obs[0]
	for _, o := range obs[1:] {
		if o.Date.After(latest.Date) {
			latest = o
		}
	}
	return latest, nil
}

func (c *Client) fetch(ctx context.Context, commodity models.Commodity, params map[string][]string) ([]models.PriceObservation, error) {
	ds, ok := c.datasets[commodity]
	if !ok {
		return nil, fmt.Errorf("%w: no dataset configured for %q", models.ErrUnknownCommodity, commodity)
	}
	if c.cfg.APIKey != "" {
		params["api_key"] = []string{c.cfg.APIKey}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.host); err != nil {
			return nil, err
		}
	}

	var resp datasetResponse
	start := time.Now()
	call := func() error {
		err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         strings.TrimRight(c.cfg.BaseURL, "/") + "/datasets/" + ds.Code + "/data.json",
			QueryParams: params,
		}, &resp)
		if xhttp.IsStatus(err, http.StatusNotFound) {
			return fmt.Errorf("%w: dataset %s: %v", models.ErrSourceUnavailable, ds.Code, err)
		}
		return err
	}
	var err error
	if c.breaker != nil {
		err = c.breaker.Do(call)
	} else {
		err = call()
	}
	srcmetrics.ObserveCall("quandl", start, err)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("quandl %s: %w", ds.Code, err)
	}

	col, err := valueColumn(resp.DatasetData.ColumnNames, ds.Column)
	if err != nil {
		return nil, fmt.Errorf("%w: dataset %s: %v", models.ErrSourceUnavailable, ds.Code, err)
	}
	obs, skipped := parseRows(resp.DatasetData.Data, col)
	c.log.Debug("prices fetched",
		applogger.String("commodity", commodity.String()),
		applogger.String("dataset", ds.Code),
		applogger.Int("rows", len(obs)),
		applogger.Int("skipped", skipped),
		applogger.Duration("took_ms", time.Since(start)),
	)
	return obs, nil
}

// valueColumn finds name among columns; an empty name picks the first value
// column after the date.
func valueColumn(columns []string, name string) (int, error) {
	if name == "" {
		if len(columns) < 2 {
			return 0, fmt.Errorf("no value column")
		}
		return 1, nil
	}
	for i, c := range columns {
		if strings.EqualFold(c, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column %q not in %v", name, columns)
}

// parseRows converts [date, v1, v2...] rows. Rows with a null or
// non-numeric cell in col are skipped and counted.
func parseRows(rows [][]interface{}, col int) ([]models.PriceObservation, int) {
	out := make([]models.PriceObservation, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if len(row) <= col {
			skipped++
			continue
		}
		ds, ok := row[0].(string)
		if !ok {
			skipped++
			continue
		}
		day, err := util.ParseDate(ds)
		if err != nil {
			skipped++
			continue
		}
		v, ok := row[col].(float64)
		if !ok {
			skipped++
			continue
		}
		out = append(out, models.PriceObservation{Date: day, Price: v})
	}
	return out, skipped
}
