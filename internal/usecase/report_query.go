package usecase

import (
	"context"
	"fmt"

	"MineWatch/internal/domain/models"
	drepo "MineWatch/internal/domain/repository"
)

// ReportQueryUseCase answers questions about the last persisted run.
type ReportQueryUseCase struct {
	reader drepo.ReportReader
}

func NewReportQueryUseCase(reader drepo.ReportReader) *ReportQueryUseCase {
	return &ReportQueryUseCase{reader: reader}
}

// Latest returns the last report.
func (uc *ReportQueryUseCase) Latest(ctx context.Context) (*models.Report, error) {
	return uc.reader.LatestReport(ctx)
}

// CommodityView is one commodity's model with its ranking entry, if any.
type CommodityView struct {
	RunID    string                `json:"run_id"`
	Model    models.CommodityModel `json:"model"`
	Forecast *models.Forecast      `json:"forecast,omitempty"`
}

// Commodity returns the stored model for name.
func (uc *ReportQueryUseCase) Commodity(ctx context.Context, name string) (*CommodityView, error) {
	c, err := models.ParseCommodity(name)
	if err != nil {
		return nil, err
	}
	rep, err := uc.reader.LatestReport(ctx)
	if err != nil {
		return nil, err
	}
	m, ok := rep.Model(c)
	if !ok {
		return nil, fmt.Errorf("%w: %s was not analysed in run %s", models.ErrUnknownCommodity, c, rep.RunID)
	}
	view := &CommodityView{RunID: rep.RunID, Model: m}
	for i := range rep.Ranking {
		if rep.Ranking[i].Commodity == c {
			f := rep.Ranking[i]
			view.Forecast = &f
			break
		}
	}
	return view, nil
}

// Reforecast ranks the stored models against caller supplied prices.
func (uc *ReportQueryUseCase) Reforecast(ctx context.Context, current map[string]float64, top int) ([]models.Forecast, []models.Exclusion, error) {
	parsed := make(map[models.Commodity]float64, len(current))
	for name, v := range current {
		c, err := models.ParseCommodity(name)
		if err != nil {
			return nil, nil, err
		}
		parsed[c] = v
	}
	rep, err := uc.reader.LatestReport(ctx)
	if err != nil {
		return nil, nil, err
	}
	byCommodity := make(map[models.Commodity]models.CommodityModel, len(rep.Models))
	for _, m := range rep.Models {
		byCommodity[m.Commodity] = m
	}
	return Forecast(byCommodity, parsed, top)
}
