// Package storage keeps finished runs on disk, one directory per run with
// a metadata.json, the run's config.yaml and, for simulations, a
// results.csv of every observed row.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/modsim/internal/config"
	"github.com/san-kum/modsim/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	resultsFile  = "results.csv"
)

var ErrNoResults = errors.New("storage: run has no results")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Mode       string             `json:"mode"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Integrator string             `json:"integrator,omitempty"`
	Solver     string             `json:"solver,omitempty"`
	Rows       int                `json:"rows"`
	Columns    []string           `json:"columns,omitempty"`
	Success    *bool              `json:"success,omitempty"`
	Message    string             `json:"message,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	// Values holds solved unknowns or composition outputs.
	Values map[string]float64 `json:"values,omitempty"`
	Notes  []string           `json:"notes,omitempty"`
}

// Run is what Save persists. Result is nil for solve and compose runs.
type Run struct {
	Name   string
	Config *config.Config
	Result *dynamo.Result
	Meta   RunMetadata
}

// Save writes run into a fresh directory and returns its ID.
func (s *Store) Save(run Run) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", run.Name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := run.Meta
	meta.ID = runID
	meta.Name = run.Name
	meta.Timestamp = now
	if run.Config != nil {
		meta.Mode = run.Config.Mode
		meta.Seed = run.Config.Seed
		if err := config.Save(filepath.Join(runDir, configFile), run.Config); err != nil {
			return "", err
		}
	}
	if run.Result != nil {
		meta.Integrator = run.Result.Integrator
		meta.Rows = run.Result.Len()
		meta.Columns = run.Result.Columns
		meta.Notes = append(meta.Notes, run.Result.Notes...)
		if err := writeResults(filepath.Join(runDir, resultsFile), run.Result); err != nil {
			return "", err
		}
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResults(path string, res *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"time"}, res.Columns...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i, vals := range res.Rows {
		row := make([]string, 0, len(vals)+1)
		row = append(row, strconv.FormatFloat(res.Times[i], 'g', -1, 64))
		for _, v := range vals {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig returns the config the run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadResult reads results.csv back into a Result. Values round-trip
// exactly.
func (s *Store) LoadResult(runID string) (*dynamo.Result, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, resultsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoResults, runID)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoResults, runID)
	}

	res := dynamo.NewResult(records[0][1:], "")
	if meta, err := s.Load(runID); err == nil {
		res.Integrator = meta.Integrator
		res.Notes = meta.Notes
	}

	for line, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", resultsFile, line+2, err)
		}
		row := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			row[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", resultsFile, line+2, err)
			}
		}
		res.Append(t, row)
	}
	return res, nil
}
