// Package storage keeps population checkpoints and fitness history in
// BadgerDB so that training can restart from the last completed
// generation.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/ChizhovVadim/blondie/internal/evolution"
	"github.com/ChizhovVadim/blondie/pkg/evaluator"
)

// Storage keys
const (
	keyLatest        = "meta/latest"
	prefixEvaluators = "evaluator/"
	prefixHistory    = "history/"
)

// chunkSize keeps every value under the 1 MiB limit badger enforces in
// memory mode. A 9604-input evaluator takes about 7 MB.
const chunkSize = 512 << 10

var ErrNoCheckpoint = errors.New("no checkpoint stored")

// Checkpoint describes the newest stored population. Generation is the
// index of the generation the population is going to play.
type Checkpoint struct {
	Generation int       `json:"generation"`
	Size       int       `json:"size"`
	SavedAt    time.Time `json:"saved_at"`
}

type Storage struct {
	db *badger.DB
	// Keep is the number of populations retained; 0 keeps all.
	Keep int
}

func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	return open(opts)
}

func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	return &Storage{db: db, Keep: 2}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func populationPrefix(generation int) string {
	return fmt.Sprintf("%s%08d/", prefixEvaluators, generation)
}

func evaluatorKey(generation, index int, e *evaluator.Evaluator) string {
	return fmt.Sprintf("%s%03d/%s", populationPrefix(generation), index, e.ID)
}

func chunkKey(evaluatorKey string, chunk int) []byte {
	return []byte(fmt.Sprintf("%s/%04d", evaluatorKey, chunk))
}

// ownerKey strips the chunk number from a stored key.
func ownerKey(key []byte) string {
	var s = string(key)
	return s[:strings.LastIndexByte(s, '/')]
}

// SavePopulation stores pop as the population of generation, in order,
// replacing whatever was stored for it, then moves the latest pointer
// and prunes old populations. Each evaluator is split into chunks.
func (s *Storage) SavePopulation(generation int, pop evolution.Population) error {
	var prefix = []byte(populationPrefix(generation))
	if s.hasPrefix(prefix) {
		if err := s.db.DropPrefix(prefix); err != nil {
			return errors.Wrap(err, "drop previous population")
		}
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for i, e := range pop {
		data, err := e.MarshalBinary()
		if err != nil {
			return err
		}
		var key = evaluatorKey(generation, i, e)
		for chunk := 0; len(data) > 0; chunk++ {
			var n = min(len(data), chunkSize)
			if err := wb.Set(chunkKey(key, chunk), data[:n]); err != nil {
				return errors.Wrapf(err, "store evaluator %v", e.ID)
			}
			data = data[n:]
		}
	}
	if err := wb.Flush(); err != nil {
		return errors.Wrap(err, "flush population")
	}

	data, err := json.Marshal(Checkpoint{
		Generation: generation,
		Size:       len(pop),
		SavedAt:    time.Now(),
	})
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyLatest), data)
	})
	if err != nil {
		return err
	}
	return s.prune(generation)
}

func (s *Storage) hasPrefix(prefix []byte) bool {
	var found bool
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		it.Rewind()
		found = it.Valid()
		return nil
	})
	return found
}

func (s *Storage) prune(latest int) error {
	if s.Keep <= 0 {
		return nil
	}
	generations, err := s.Generations()
	if err != nil {
		return err
	}
	var prefixes [][]byte
	for _, g := range generations {
		if g <= latest-s.Keep {
			prefixes = append(prefixes, []byte(populationPrefix(g)))
		}
	}
	if len(prefixes) == 0 {
		return nil
	}
	return s.db.DropPrefix(prefixes...)
}

// Generations lists the generations with a stored population, ascending.
func (s *Storage) Generations() ([]int, error) {
	var result []int
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixEvaluators)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rest = strings.TrimPrefix(string(it.Item().Key()), prefixEvaluators)
			g, err := strconv.Atoi(rest[:strings.IndexByte(rest, '/')])
			if err != nil {
				return errors.Wrapf(err, "bad key %q", it.Item().Key())
			}
			if len(result) == 0 || result[len(result)-1] != g {
				result = append(result, g)
			}
		}
		return nil
	})
	return result, err
}

func (s *Storage) Latest() (Checkpoint, error) {
	var cp Checkpoint
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyLatest))
		if err == badger.ErrKeyNotFound {
			return ErrNoCheckpoint
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cp)
		})
	})
	return cp, err
}

// LoadPopulation reassembles the evaluators of generation from their
// chunks, in stored order.
func (s *Storage) LoadPopulation(generation int) (evolution.Population, error) {
	var pop evolution.Population
	var owner string
	var buf bytes.Buffer
	var flush = func() error {
		if buf.Len() == 0 {
			return nil
		}
		e, err := evaluator.Load(&buf)
		if err != nil {
			return errors.Wrapf(err, "load %s", owner)
		}
		pop = append(pop, e)
		buf.Reset()
		return nil
	}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(populationPrefix(generation))
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var item = it.Item()
			if key := ownerKey(item.Key()); key != owner {
				if err := flush(); err != nil {
					return err
				}
				owner = key
			}
			err := item.Value(func(val []byte) error {
				buf.Write(val)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return flush()
	})
	if err != nil {
		return nil, err
	}
	if len(pop) == 0 {
		return nil, errors.Wrapf(ErrNoCheckpoint, "generation %v", generation)
	}
	return pop, nil
}

// LoadLatest returns the newest population and the generation it plays.
func (s *Storage) LoadLatest() (evolution.Population, Checkpoint, error) {
	cp, err := s.Latest()
	if err != nil {
		return nil, Checkpoint{}, err
	}
	pop, err := s.LoadPopulation(cp.Generation)
	if err != nil {
		return nil, Checkpoint{}, err
	}
	if len(pop) != cp.Size {
		return nil, Checkpoint{}, errors.Errorf("checkpoint %v has %v evaluators, expected %v",
			cp.Generation, len(pop), cp.Size)
	}
	return pop, cp, nil
}

func (s *Storage) SaveRecord(record evolution.GenerationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(fmt.Sprintf("%s%08d", prefixHistory, record.Generation)), data)
	})
}

// History returns the stored generation records in generation order.
func (s *Storage) History() ([]evolution.GenerationRecord, error) {
	var result []evolution.GenerationRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixHistory)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var record evolution.GenerationRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			result = append(result, record)
		}
		return nil
	})
	return result, err
}
