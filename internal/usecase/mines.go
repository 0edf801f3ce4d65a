package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MineWatch/internal/domain/models"
	drepo "MineWatch/internal/domain/repository"
	applogger "MineWatch/pkg/logger"
)

// MinesUseCase maintains the working mine list.
type MinesUseCase struct {
	registry drepo.MineRegistry
	store    drepo.MineStore
	metrics  drepo.Metrics
	log      *applogger.Logger
}

func NewMinesUseCase(registry drepo.MineRegistry, store drepo.MineStore, metrics drepo.Metrics, log *applogger.Logger) *MinesUseCase {
	if log == nil {
		log = applogger.Nop()
	}
	return &MinesUseCase{registry: registry, store: store, metrics: metrics, log: log}
}

// Load returns the stored mines.
func (uc *MinesUseCase) Load(ctx context.Context) ([]models.MineRecord, error) {
	mines, err := uc.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mines: %w", err)
	}
	return mines, nil
}

// Refresh rebuilds the mine list from the registry. Mines the registry has no
// data for, and mines without a tracked product, are returned as exclusions.
// Any other registry failure aborts the refresh.
func (uc *MinesUseCase) Refresh(ctx context.Context) ([]models.MineRecord, []models.Exclusion, error) {
	start := time.Now()
	names, err := uc.registry.ListMines(ctx)
	if err != nil {
		uc.recordError("registry")
		return nil, nil, fmt.Errorf("list mines: %w", err)
	}

	seen := make(map[string]struct{}, len(names))
	var (
		out      []models.MineRecord
		excluded []models.Exclusion
	)
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		rec, err := uc.registry.Lookup(ctx, name)
		if err != nil {
			if errors.Is(err, models.ErrSourceUnavailable) {
				uc.log.Debug("mine skipped", applogger.String("mine", name), applogger.Error(err))
				excluded = append(excluded, models.Exclusion{Kind: "mine", Name: name, Reason: err.Error()})
				continue
			}
			uc.recordError("registry")
			return nil, nil, fmt.Errorf("lookup %q: %w", name, err)
		}
		if len(rec.Products) == 0 {
			excluded = append(excluded, models.Exclusion{Kind: "mine", Name: name, Reason: "no tracked products"})
			continue
		}
		out = append(out, *rec)
	}

	if uc.metrics != nil {
		uc.metrics.RecordLatency("registry_refresh", time.Since(start).Seconds())
	}
	uc.log.Info("mine registry refreshed",
		applogger.Int("listed", len(names)),
		applogger.Int("kept", len(out)),
		applogger.Int("excluded", len(excluded)),
	)
	return out, excluded, nil
}

// RefreshAndSave refreshes from the registry and persists the result.
func (uc *MinesUseCase) RefreshAndSave(ctx context.Context) ([]models.MineRecord, []models.Exclusion, error) {
	mines, excluded, err := uc.Refresh(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := uc.store.Save(ctx, mines); err != nil {
		return nil, nil, fmt.Errorf("save mines: %w", err)
	}
	return mines, excluded, nil
}

func (uc *MinesUseCase) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}
