package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"MineWatch/internal/domain/models"
	domrepo "MineWatch/internal/domain/repository"
)

// FileReportStore writes each report as report-<run_id>.json and keeps
// latest.json pointing at the most recent one.
type FileReportStore struct {
	dir string
}

var (
	_ domrepo.ResultStore  = (*FileReportStore)(nil)
	_ domrepo.ReportReader = (*FileReportStore)(nil)
)

const latestReportFile = "latest.json"

func NewFileReportStore(dir string) *FileReportStore {
	return &FileReportStore{dir: dir}
}

func (s *FileReportStore) SaveReport(_ context.Context, r *models.Report) error {
	if r == nil {
		return errors.New("nil report")
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	name := "report.json"
	if r.RunID != "" {
		name = "report-" + r.RunID + ".json"
	}
	if err := writeFileAtomic(filepath.Join(s.dir, name), data); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.dir, latestReportFile), data)
}

// LatestReport returns models.ErrNoReport when nothing has been saved.
func (s *FileReportStore) LatestReport(_ context.Context) (*models.Report, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, latestReportFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w in %s", models.ErrNoReport, s.dir)
	}
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r models.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
