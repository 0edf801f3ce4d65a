// Package reporting renders analysis results for the terminal and for files.
package reporting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"MineWatch/internal/domain/models"
)

// WriteLagTable writes one CSV row per lag with the pooled R² of every
// commodity, in vocabulary order. Lags a commodity could not fit are blank.
func WriteLagTable(w io.Writer, rep *models.Report) error {
	order := make([]models.Commodity, len(rep.Models))
	byName := make(map[models.Commodity]models.CommodityModel, len(rep.Models))
	for i, m := range rep.Models {
		order[i] = m.Commodity
		byName[m.Commodity] = m
	}
	models.SortCommodities(order)

	cw := csv.NewWriter(w)
	header := make([]string, 0, len(order)+1)
	header = append(header, "lag")
	for _, c := range order {
		header = append(header, c.String())
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for lag := 0; lag <= rep.MaxLag; lag++ {
		row := make([]string, 0, len(order)+1)
		row = append(row, strconv.Itoa(lag))
		for _, c := range order {
			row = append(row, formatR2(byName[c], lag))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatR2(m models.CommodityModel, lag int) string {
	if lag >= len(m.RSquaredByLag) {
		return ""
	}
	return strconv.FormatFloat(m.RSquaredByLag[lag], 'f', 4, 64)
}

// WriteRanking writes the ranked commodities as an aligned table.
func WriteRanking(w io.Writer, ranking []models.Forecast) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCOMMODITY\tGROWTH\tLAG\tR2\tPRICE")
	for _, f := range ranking {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%d\t%.4f\t%.2f\n",
			f.Rank, f.Commodity, f.PredictedGrowth, f.BestLag, f.RSquared, f.CurrentPrice)
	}
	return tw.Flush()
}

// WriteExclusions lists entities that dropped out of the run.
func WriteExclusions(w io.Writer, excluded []models.Exclusion) error {
	if len(excluded) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EXCLUDED\tNAME\tREASON")
	for _, e := range excluded {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Kind, e.Name, e.Reason)
	}
	return tw.Flush()
}

// WriteMines lists cached mines with how much derived data each carries.
func WriteMines(w io.Writer, mines []models.MineRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MINE\tLAT\tLON\tPRODUCTS\tGROWTH POINTS\tBASELINES")
	for _, m := range mines {
		products := make([]string, len(m.Products))
		for i, p := range m.Products {
			products[i] = p.String()
		}
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%s\t%d\t%d\n",
			m.Name, m.Location.Lat, m.Location.Lon, strings.Join(products, ","), len(m.Growth), len(m.RSquared))
	}
	return tw.Flush()
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, rep *models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
