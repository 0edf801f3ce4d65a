package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MineWatch/internal/domain/models"
	domrepo "MineWatch/internal/domain/repository"
	pkgch "MineWatch/pkg/clickhouse"
)

// CHResultStore appends per-lag fits and the ranking of each run.
type CHResultStore struct {
	db *sql.DB
}

var _ domrepo.ResultStore = (*CHResultStore)(nil)

func NewCHResultStore(ch *pkgch.Client) *CHResultStore {
	return &CHResultStore{db: ch.DB()}
}

type lagRow struct {
	Commodity string
	Lag       uint16
	R2        float64
}

type forecastRow struct {
	Rank      uint16
	Commodity string
	BestLag   uint16
	R2        float64
	Price     float64
	Growth    float64
}

// lagRows flattens the per-lag fits of every commodity that produced a model.
func lagRows(r *models.Report) []lagRow {
	var out []lagRow
	for _, m := range r.Models {
		if !m.HasModel() {
			continue
		}
		for lag, r2 := range m.RSquaredByLag {
			out = append(out, lagRow{Commodity: m.Commodity.String(), Lag: uint16(lag), R2: r2})
		}
	}
	return out
}

func forecastRows(r *models.Report) []forecastRow {
	out := make([]forecastRow, len(r.Ranking))
	for i, f := range r.Ranking {
		out[i] = forecastRow{
			Rank:      uint16(f.Rank),
			Commodity: f.Commodity.String(),
			BestLag:   uint16(f.BestLag),
			R2:        f.RSquared,
			Price:     f.CurrentPrice,
			Growth:    f.PredictedGrowth,
		}
	}
	return out
}

func (s *CHResultStore) SaveReport(ctx context.Context, r *models.Report) error {
	at := r.GeneratedAt.UTC().Truncate(time.Second)

	lags := lagRows(r)
	if err := execBatch(ctx, s.db, "INSERT INTO lag_r2 (run_id, generated_at, commodity, lag, r2)", len(lags), func(stmt *sql.Stmt, i int) error {
		row := lags[i]
		_, err := stmt.ExecContext(ctx, r.RunID, at, row.Commodity, row.Lag, row.R2)
		return err
	}); err != nil {
		return fmt.Errorf("store lag_r2: %w", err)
	}

	fc := forecastRows(r)
	if err := execBatch(ctx, s.db, "INSERT INTO forecasts (run_id, generated_at, rank, commodity, best_lag, r2, price, growth)", len(fc), func(stmt *sql.Stmt, i int) error {
		row := fc[i]
		_, err := stmt.ExecContext(ctx, r.RunID, at, row.Rank, row.Commodity, row.BestLag, row.R2, row.Price, row.Growth)
		return err
	}); err != nil {
		return fmt.Errorf("store forecasts: %w", err)
	}
	return nil
}

// execBatch sends n rows through one prepared INSERT, which clickhouse-go
// turns into a single block write on commit.
func execBatch(ctx context.Context, db *sql.DB, insert string, n int, appendRow func(*sql.Stmt, int) error) error {
	if n == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if err := appendRow(stmt, i); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
