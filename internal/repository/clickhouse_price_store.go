package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"MineWatch/internal/domain/models"
	domrepo "MineWatch/internal/domain/repository"
	pkgch "MineWatch/pkg/clickhouse"
	applogger "MineWatch/pkg/logger"
	"MineWatch/pkg/util"
)

// CHPriceStore serves daily commodity prices from the commodity_prices table.
type CHPriceStore struct {
	db *sql.DB
	l  *applogger.Logger
}

var (
	_ domrepo.PriceSource = (*CHPriceStore)(nil)
	_ domrepo.PriceWriter = (*CHPriceStore)(nil)
)

func NewCHPriceStore(ch *pkgch.Client, l *applogger.Logger) *CHPriceStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHPriceStore{db: ch.DB(), l: l}
}

func (s *CHPriceStore) Prices(ctx context.Context, c models.Commodity, from, to time.Time) ([]models.PriceObservation, error) {
	start := time.Now()
	const q = `
        SELECT day, price
        FROM commodity_prices FINAL
        WHERE commodity = ? AND day >= ? AND day <= ?
        ORDER BY day ASC
    `
	rows, err := s.db.QueryContext(ctx, q, c.String(), util.Day(from), util.Day(to))
	if err != nil {
		s.l.Error("clickhouse prices query error",
			applogger.String("commodity", c.String()),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceObservation, 0, 512)
	for rows.Next() {
		var o models.PriceObservation
		if err := rows.Scan(&o.Date, &o.Price); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		o.Date = util.Day(o.Date)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no stored prices for %s between %s and %s",
			models.ErrSourceUnavailable, c, util.FormatDate(from), util.FormatDate(to))
	}
	s.l.Debug("clickhouse prices ok",
		applogger.String("commodity", c.String()),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHPriceStore) Latest(ctx context.Context, c models.Commodity) (models.PriceObservation, error) {
	const q = `
        SELECT day, price
        FROM commodity_prices FINAL
        WHERE commodity = ?
        ORDER BY day DESC
        LIMIT 1
    `
	var o models.PriceObservation
	err := s.db.QueryRowContext(ctx, q, c.String()).Scan(&o.Date, &o.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return o, fmt.Errorf("%w: no stored prices for %s", models.ErrSourceUnavailable, c)
	}
	if err != nil {
		return o, fmt.Errorf("query latest price: %w", err)
	}
	o.Date = util.Day(o.Date)
	return o, nil
}

// SavePrices upserts observations for c. Rows for an existing day replace
// the old price on merge.
func (s *CHPriceStore) SavePrices(ctx context.Context, c models.Commodity, obs []models.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}
	err := execBatch(ctx, s.db, "INSERT INTO commodity_prices (commodity, day, price)", len(obs), func(stmt *sql.Stmt, i int) error {
		_, err := stmt.ExecContext(ctx, c.String(), util.Day(obs[i].Date), obs[i].Price)
		return err
	})
	if err != nil {
		return fmt.Errorf("store prices: %w", err)
	}
	s.l.Info("clickhouse prices stored",
		applogger.String("commodity", c.String()),
		applogger.Int("rows", len(obs)),
	)
	return nil
}
