package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/partsim/internal/experiment"
)

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
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Steps      int                `json:"steps"`
	Entities   int                `json:"entities"`
	Mutators   []string           `json:"mutators"`
	DurationMs float64            `json:"duration_ms"`
	Series     []string           `json:"series"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Series is a stored run's per-step metric values.
type Series struct {
	Steps  []int
	Values map[string][]float64
}

// Save writes metadata.json and series.csv under a new run directory and
// returns the run id.
func (s *Store) Save(meta RunMetadata, result *experiment.Result) (string, error) {
	now := time.Now()
	name := meta.Preset
	if name == "" {
		name = "custom"
	}
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Preset = name
	meta.Timestamp = now
	meta.Steps = result.StepsTaken
	meta.DurationMs = float64(result.Duration.Microseconds()) / 1000
	meta.Series = result.Names
	meta.Metrics = result.Metrics

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "series.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := writeSeries(w, result); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

func writeSeries(w *csv.Writer, result *experiment.Result) error {
	header := append([]string{"step"}, result.Names...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < result.StepsTaken; i++ {
		row := []string{strconv.Itoa(i + 1)}
		for _, name := range result.Names {
			vals := result.Series[name]
			if i < len(vals) {
				row = append(row, strconv.FormatFloat(vals[i], 'g', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// List returns every stored run, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(s.SeriesPath(runID))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	out := &Series{Values: make(map[string][]float64)}
	if len(records) == 0 {
		return out, nil
	}

	header := records[0]
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		step, err := strconv.Atoi(record[0])
		if err != nil {
			continue
		}
		out.Steps = append(out.Steps, step)

		for j := 1; j < len(header); j++ {
			v := 0.0
			if j < len(record) {
				if parsed, err := strconv.ParseFloat(record[j], 64); err == nil {
					v = parsed
				}
			}
			out.Values[header[j]] = append(out.Values[header[j]], v)
		}
	}

	return out, nil
}

func (s *Store) SeriesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, "series.csv")
}
