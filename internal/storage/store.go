// Package storage keeps recorded shows on disk: one directory per run with
// a metadata.json and a frames.csv of hex colors, one row per frame.
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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/monitoring"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var (
	ErrRunNotFound = errors.New("storage: run not found")
	ErrFrameSize   = errors.New("storage: frame size does not match run")
	ErrInvalidID   = errors.New("storage: invalid run id")
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

func (s *Store) Dir() string { return s.baseDir }

// runDir resolves a run id to its directory. Ids are single path elements,
// so a run can never point outside the store.
func (s *Store) runDir(runID string) (string, error) {
	if runID == "" || runID == "." || runID == ".." ||
		strings.ContainsAny(runID, `/\`) || filepath.Base(runID) != runID {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, runID)
	}
	return filepath.Join(s.baseDir, runID), nil
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Effect    string    `json:"effect"`
	Preset    string    `json:"preset,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	FPS       int       `json:"fps"`
	LEDCount  int       `json:"led_count"`
	Duration  float64   `json:"duration"`
	Frames    int       `json:"frames"`

	Metrics map[string]float64 `json:"metrics,omitempty"`
}

func newRunID(effect string) string {
	return fmt.Sprintf("%s_%s", effect, uuid.NewString()[:8])
}

// Save writes a whole recording at once and returns its run id.
func (s *Store) Save(meta RunMetadata, frames [][]color.RGB) (string, error) {
	rec, err := s.Create(meta)
	if err != nil {
		return "", err
	}
	for _, f := range frames {
		if err := rec.Send(f); err != nil {
			rec.Close()
			return "", err
		}
	}
	if err := rec.Close(); err != nil {
		return "", err
	}
	return rec.ID(), nil
}

// Recorder appends frames to a run as they are rendered. It satisfies the
// sink contract so a live show can be captured while it streams.
type Recorder struct {
	dir    string
	meta   RunMetadata
	file   *os.File
	w      *csv.Writer
	closed bool
}

// Create starts a new run. meta.ID and meta.Timestamp are filled in when
// empty; Frames and Duration are computed on Close.
func (s *Store) Create(meta RunMetadata) (*Recorder, error) {
	if meta.ID == "" {
		meta.ID = newRunID(meta.Effect)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	dir, err := s.runDir(meta.ID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(dir, framesFile))
	if err != nil {
		return nil, err
	}
	r := &Recorder{dir: dir, meta: meta, file: f, w: csv.NewWriter(f)}
	header := make([]string, 0, meta.LEDCount+1)
	header = append(header, "frame")
	for i := 0; i < meta.LEDCount; i++ {
		header = append(header, fmt.Sprintf("led%d", i))
	}
	if err := r.w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Recorder) ID() string { return r.meta.ID }

// SetMetrics attaches summary values that are written with the metadata on
// Close.
func (r *Recorder) SetMetrics(m map[string]float64) {
	r.meta.Metrics = m
}

// Send appends one frame. Its length must equal the run's LED count.
func (r *Recorder) Send(pixels []color.RGB) error {
	if r.closed {
		return os.ErrClosed
	}
	if len(pixels) != r.meta.LEDCount {
		return fmt.Errorf("%w: got %d, want %d", ErrFrameSize, len(pixels), r.meta.LEDCount)
	}
	row := make([]string, 0, len(pixels)+1)
	row = append(row, strconv.Itoa(r.meta.Frames))
	for _, p := range pixels {
		row = append(row, p.Hex())
	}
	if err := r.w.Write(row); err != nil {
		return err
	}
	r.meta.Frames++
	return nil
}

// Close flushes the frames and writes metadata.json.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.file.Close()
		return err
	}
	if err := r.file.Close(); err != nil {
		return err
	}
	if r.meta.FPS > 0 {
		r.meta.Duration = float64(r.meta.Frames) / float64(r.meta.FPS)
	}
	return writeMetadata(filepath.Join(r.dir, metadataFile), r.meta)
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns every readable run, newest first. Directories without valid
// metadata are skipped.
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
			monitoring.Debugf("storage: skipping %s: %v", entry.Name(), err)
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadFrames reads every frame of a run in order.
func (s *Store) LoadFrames(runID string) ([][]color.RGB, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(dir, framesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]color.RGB{}, nil
	}

	frames := make([][]color.RGB, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		pixels := make([]color.RGB, 0, len(record)-1)
		for _, field := range record[1:] {
			c, err := color.ParseHex(field)
			if err != nil {
				return nil, fmt.Errorf("storage: %s frame %d: %w", runID, i, err)
			}
			pixels = append(pixels, c)
		}
		frames = append(frames, pixels)
	}
	return frames, nil
}

// Delete removes a run and its frames.
func (s *Store) Delete(runID string) error {
	dir, err := s.runDir(runID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, metadataFile)); err != nil {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return os.RemoveAll(dir)
}
