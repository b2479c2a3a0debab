package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"

	"github.com/ChizhovVadim/blondie/internal/evolution"
	"github.com/ChizhovVadim/blondie/internal/report"
	"github.com/ChizhovVadim/blondie/internal/storage"
	"github.com/ChizhovVadim/blondie/pkg/rules"
)

type Config struct {
	evolution.Config
	backend   string
	dbPath    string
	netFolder string
	csvPath   string
	resume    bool
}

var config = Config{Config: evolution.DefaultConfig()}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	flag.IntVar(&config.Generations, "generations", config.Generations, "Number of generations")
	flag.IntVar(&config.SurvivorCount, "survivors", config.SurvivorCount, "Survivors per generation")
	flag.IntVar(&config.OpponentsPerEvaluator, "opponents", config.OpponentsPerEvaluator, "Games per evaluator and generation")
	flag.IntVar(&config.SearchDepth, "depth", config.SearchDepth, "Search depth in plies")
	flag.BoolVar(&config.UseAlphaBeta, "alphabeta", config.UseAlphaBeta, "Use alpha-beta instead of minimax")
	flag.Int64Var(&config.WinReward, "win", config.WinReward, "Fitness for a win")
	flag.Int64Var(&config.LossPenalty, "loss", config.LossPenalty, "Fitness for a loss")
	flag.Int64Var(&config.DrawReward, "draw", config.DrawReward, "Fitness for a draw")
	flag.IntVar(&config.MaxPlies, "maxplies", config.MaxPlies, "Adjudicate a draw after that many plies, 0 = no limit")
	flag.IntVar(&config.Concurrency, "concurrency", config.Concurrency, "Number of games played in parallel")
	flag.Int64Var(&config.Seed, "seed", config.Seed, "Random seed")
	flag.IntVar(&config.InputSize, "inputs", config.InputSize, "Network input size")
	flag.StringVar(&config.backend, "backend", string(config.Backend), "Rules backend: counter or notnil")
	flag.StringVar(&config.dbPath, "db", "blondie-db", "Checkpoint database directory, empty keeps checkpoints in memory")
	flag.StringVar(&config.netFolder, "net", "", "Directory for the final networks")
	flag.StringVar(&config.csvPath, "csv", "", "Fitness history CSV path")
	flag.BoolVar(&config.resume, "resume", false, "Resume from the latest checkpoint in -db")
	flag.Parse()

	log.Printf("%+v", config)

	var err = run()
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	log.Println("train started")
	defer log.Println("train finished")

	log.Println("NumCPU", runtime.NumCPU(),
		"GOMAXPROCS", runtime.GOMAXPROCS(0),
		"concurrency", config.Concurrency)

	backend, err := rules.ParseBackend(config.backend)
	if err != nil {
		return err
	}
	config.Backend = backend

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := openStorage(config.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	trainer, err := evolution.NewTrainer(config.Config, log.Default())
	if err != nil {
		return err
	}
	trainer.OnGeneration = func(record evolution.GenerationRecord, standings []evolution.Standing, next evolution.Population) error {
		if err := store.SaveRecord(record); err != nil {
			return err
		}
		return store.SavePopulation(record.Generation+1, next)
	}

	var result evolution.Result
	if config.resume {
		pop, cp, err := store.LoadLatest()
		if err != nil {
			return errors.Wrap(err, "resume")
		}
		log.Printf("Resuming at generation %v with %v evaluators\n", cp.Generation+1, len(pop))
		result, err = trainer.Resume(ctx, pop, cp.Generation)
		if err != nil {
			return err
		}
	} else {
		result, err = trainer.Run(ctx)
		if err != nil {
			return err
		}
	}

	history, err := store.History()
	if err != nil {
		return err
	}
	fmt.Println(report.HistoryTable(history))
	fmt.Println(report.PopulationTable(result.Final))

	if err := writeHistory(history); err != nil {
		return err
	}
	if len(result.Final) != 0 {
		var best = result.Final[len(result.Final)-1].Evaluator
		log.Printf("Best evaluator %v has %v ancestors\n", best.ID, len(trainer.Lineage().Ancestry(best.ID)))
	}
	return saveNetworks(result.Final)
}

func openStorage(path string) (*storage.Storage, error) {
	if path == "" {
		return storage.OpenInMemory()
	}
	return storage.Open(path)
}

func writeHistory(history []evolution.GenerationRecord) error {
	var path = config.csvPath
	if path == "" {
		path = report.CSVName(config.Generations, config.SearchDepth)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := report.WriteCSV(f, history); err != nil {
		return err
	}
	log.Println("Saved fitness history", path)
	return f.Close()
}

// saveNetworks writes the final population, ascending by fitness.
func saveNetworks(standings []evolution.Standing) error {
	if config.netFolder == "" {
		return nil
	}
	if err := os.MkdirAll(config.netFolder, os.ModePerm); err != nil {
		return err
	}
	for i, s := range standings {
		var path = filepath.Join(config.netFolder,
			fmt.Sprintf("n-%02d-%v.bin", i+1, s.Evaluator.ID))
		if err := s.Snapshot().SaveFile(path); err != nil {
			return err
		}
	}
	log.Println("Saved networks", len(standings), config.netFolder)
	return nil
}
