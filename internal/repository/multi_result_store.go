package repository

import (
	"context"
	"errors"

	"MineWatch/internal/domain/models"
	domrepo "MineWatch/internal/domain/repository"
)

// MultiResultStore saves a report to every store and joins their errors.
type MultiResultStore []domrepo.ResultStore

func (m MultiResultStore) SaveReport(ctx context.Context, r *models.Report) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.SaveReport(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
