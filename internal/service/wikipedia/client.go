// Package wikipedia reads the mine registry from MediaWiki: the list article
// yields mine names, each mine article yields coordinates and products.
package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"MineWatch/internal/domain/models"
	srcmetrics "MineWatch/internal/service/metrics"
	"MineWatch/internal/service/ratelimit"
	"MineWatch/pkg/breaker"
	xhttp "MineWatch/pkg/http"
	applogger "MineWatch/pkg/logger"
)

// Config for the registry client.
type Config struct {
	APIURL       string        `yaml:"api_url" default:"https://en.wikipedia.org/w/api.php" validate:"required,url"`
	ListPage     string        `yaml:"list_page" default:"List_of_open-pit_mines" validate:"required"`
	UserAgent    string        `yaml:"user_agent" default:"MineWatch/1.0 (mining research data collector)" validate:"required"`
	Timeout      time.Duration `yaml:"timeout" default:"15s"`
	MaxRedirects int           `yaml:"max_redirects" default:"5" validate:"gte=0,lte=20"`
}

var listEntry = regexp.MustCompile(`(?m)^\*[^\[\]]*?\[\[(?P<name>[^\[\]\|]+)`)

// materials maps each commodity to the words that reveal it in article text.
var materials = []struct {
	commodity models.Commodity
	re        *regexp.Regexp
}{
	{models.Gold, regexp.MustCompile(`(?i)gold`)},
	{models.Silver, regexp.MustCompile(`(?i)silver`)},
	{models.Copper, regexp.MustCompile(`(?i)copper|malachite`)},
	{models.Uranium, regexp.MustCompile(`(?i)uranium`)},
	{models.Coal, regexp.MustCompile(`(?i)coal|lignite`)},
	{models.Lead, regexp.MustCompile(`(?i)lead|galena`)},
}

// Client implements repository.MineRegistry.
type Client struct {
	cfg     Config
	host    string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	breaker *breaker.Breaker
	log     *applogger.Logger
}

func New(cfg Config, limiter *ratelimit.Limiter, br *breaker.Breaker, log *applogger.Logger) (*Client, error) {
	u, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("wikipedia api url: %w", err)
	}
	if log == nil {
		log = applogger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:     cfg,
		host:    u.Host,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout), xhttp.WithUserAgent(cfg.UserAgent)),
		limiter: limiter,
		breaker: br,
		log:     log,
	}, nil
}

type queryResponse struct {
	Query struct {
		Normalized []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"normalized"`
		Pages map[string]page `json:"pages"`
	} `json:"query"`
}

type page struct {
	Title       string  `json:"title"`
	Missing     *string `json:"missing"`
	Coordinates []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coordinates"`
	Revisions []struct {
		Content string `json:"*"`
	} `json:"revisions"`
}

// ListMines returns the mine article titles linked from the list page's
// bullet entries, in page order.
func (c *Client) ListMines(ctx context.Context) ([]string, error) {
	p, err := c.article(ctx, c.cfg.ListPage)
	if err != nil {
		return nil, fmt.Errorf("mine list %q: %w", c.cfg.ListPage, err)
	}
	return ParseMineList(p.text()), nil
}

// Lookup resolves one mine article. A missing page, or one without
// coordinates, yields models.ErrSourceUnavailable.
func (c *Client) Lookup(ctx context.Context, name string) (*models.MineRecord, error) {
	p, err := c.article(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(p.Coordinates) == 0 {
		return nil, fmt.Errorf("%w: %q has no coordinates", models.ErrSourceUnavailable, name)
	}
	return &models.MineRecord{
		Name:     name,
		Location: models.Location{Lat: p.Coordinates[0].Lat, Lon: p.Coordinates[0].Lon},
		Products: ParseProducts(p.text()),
	}, nil
}

// article fetches title and follows title normalisation until a terminal page.
func (c *Client) article(ctx context.Context, title string) (*page, error) {
	for depth := 0; ; depth++ {
		resp, err := c.query(ctx, title)
		if err != nil {
			return nil, err
		}

		var p *page
		for _, v := range resp.Query.Pages {
			v := v
			p = &v
			break
		}
		if p == nil || p.Missing != nil {
			return nil, fmt.Errorf("%w: no data for this mine (%q)", models.ErrSourceUnavailable, title)
		}
		if len(resp.Query.Normalized) == 0 {
			return p, nil
		}
		if depth >= c.cfg.MaxRedirects {
			return nil, fmt.Errorf("%w: %q normalises more than %d times", models.ErrSourceUnavailable, title, c.cfg.MaxRedirects)
		}
		next := resp.Query.Normalized[0].To
		c.log.Debug("following normalised title", applogger.String("from", title), applogger.String("to", next))
		title = next
	}
}

func (c *Client) query(ctx context.Context, title string) (*queryResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.host); err != nil {
			return nil, err
		}
	}
	var resp queryResponse
	start := time.Now()
	call := func() error {
		return c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    c.cfg.APIURL,
			QueryParams: map[string][]string{
				"action":    {"query"},
				"prop":      {"revisions|coordinates"},
				"rvprop":    {"content"},
				"format":    {"json"},
				"redirects": {""},
				"titles":    {title},
			},
		}, &resp)
	}
	var err error
	if c.breaker != nil {
		err = c.breaker.Do(call)
	} else {
		err = call()
	}
	srcmetrics.ObserveCall("wikipedia", start, err)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("wikipedia query %q: %w", title, err)
	}
	return &resp, nil
}

func (p *page) text() string {
	if len(p.Revisions) == 0 {
		return ""
	}
	return p.Revisions[0].Content
}

// ParseMineList extracts linked names from "* ... [[Name" bullet lines.
func ParseMineList(wikitext string) []string {
	idx := listEntry.SubexpIndex("name")
	var out []string
	for _, m := range listEntry.FindAllStringSubmatch(wikitext, -1) {
		if name := strings.TrimSpace(m[idx]); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// ParseProducts lists the commodities an article mentions, in vocabulary order.
func ParseProducts(wikitext string) []models.Commodity {
	var out []models.Commodity
	for _, m := range materials {
		if m.re.MatchString(wikitext) {
			out = append(out, m.commodity)
		}
	}
	return out
}
