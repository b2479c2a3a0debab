package report

import (
	"bytes"
	"encoding/csv"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ChizhovVadim/blondie/internal/evolution"
	"github.com/ChizhovVadim/blondie/pkg/evaluator"
)

var records = []evolution.GenerationRecord{
	{Generation: 0, AverageFitness: -1.5, BestFitness: 3, WorstFitness: -10, Elapsed: time.Second},
	{Generation: 1, AverageFitness: 0.25, BestFitness: 5, WorstFitness: -6, Elapsed: 2 * time.Second},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"generation", "average_fitness", "best_fitness", "worst_fitness"},
		{"1", "-1.5", "3", "-10"},
		{"2", "0.25", "5", "-6"},
	}, rows)
}

func TestCSVName(t *testing.T) {
	require.Equal(t, "840g4dfitnessOverTime.csv", CSVName(840, 3))
}

func TestTables(t *testing.T) {
	var history = HistoryTable(records)
	require.Len(t, strings.Split(strings.TrimSpace(history), "\n"), 3)
	require.Contains(t, history, "AvgFitness")
	require.Contains(t, history, "0.250")

	var e = evaluator.New(rand.New(rand.NewSource(1)), evaluator.BoardFeatures)
	var population = PopulationTable([]evolution.Standing{{Evaluator: e, Fitness: -4}})
	require.Contains(t, population, e.ID.String())
	require.Contains(t, population, "-4")
}
