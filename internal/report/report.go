// Package report renders fitness history and populations as CSV for
// plotting and as text tables for the console.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gosuri/uitable"

	"github.com/ChizhovVadim/blondie/internal/evolution"
)

var csvHeader = []string{"generation", "average_fitness", "best_fitness", "worst_fitness"}

// CSVName is the conventional file name of a run's fitness history.
func CSVName(generations, depth int) string {
	return fmt.Sprintf("%vg%vdfitnessOverTime.csv", generations, depth+1)
}

func WriteCSV(w io.Writer, records []evolution.GenerationRecord) error {
	var cw = csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		var row = []string{
			strconv.Itoa(r.Generation + 1),
			strconv.FormatFloat(r.AverageFitness, 'g', -1, 64),
			strconv.FormatFloat(r.BestFitness, 'g', -1, 64),
			strconv.FormatFloat(r.WorstFitness, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func HistoryTable(records []evolution.GenerationRecord) string {
	var table = uitable.New()
	table.MaxColWidth = 40
	table.Wrap = false
	table.AddRow("Generation", "AvgFitness", "Best", "Worst", "Elapsed")
	for _, r := range records {
		table.AddRow(r.Generation+1, fmt.Sprintf("%.3f", r.AverageFitness),
			r.BestFitness, r.WorstFitness, r.Elapsed.Round(time.Millisecond))
	}
	return table.String()
}

func PopulationTable(standings []evolution.Standing) string {
	var table = uitable.New()
	table.MaxColWidth = 40
	table.Wrap = false
	table.AddRow("Rank", "Evaluator", "Parent", "Born", "Sigma", "Fitness")
	for i, s := range standings {
		var e = s.Evaluator
		table.AddRow(i+1, e.ID, e.ParentID, e.Generation, fmt.Sprintf("%.5f", e.Sigma), s.Fitness)
	}
	return table.String()
}
