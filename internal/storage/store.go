package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/san-kum/ballpit/internal/physics"
	"github.com/san-kum/ballpit/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Strategy  string             `json:"strategy"`
	Bodies    int                `json:"bodies"`
	Seed      uint64             `json:"seed"`
	Tick      time.Duration      `json:"tick"`
	Duration  time.Duration      `json:"duration"`
	Arena     physics.Arena      `json:"arena"`
	Samples   int                `json:"samples"`
	Stats     sim.Stats          `json:"stats"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Frame is one sampled snapshot of the whole set.
type Frame struct {
	Elapsed time.Duration
	Bodies  []physics.BodyState
}

type frameRow struct {
	Sample    int     `csv:"sample"`
	ElapsedMS float64 `csv:"elapsed_ms"`
	Body      int     `csv:"body"`
	Color     string  `csv:"color"`
	Radius    float64 `csv:"radius"`
	X         float64 `csv:"x"`
	Y         float64 `csv:"y"`
	VX        float64 `csv:"vx"`
	VY        float64 `csv:"vy"`
}

// Recorder streams the frames of one run to frames.csv. Metadata is written by
// Close, so a run only shows up in List once it is complete.
type Recorder struct {
	Meta RunMetadata

	dir           string
	file          *os.File
	headerWritten bool
}

// Create starts a run directory. An empty meta.ID gets a fresh UUID.
func (s *Store) Create(meta RunMetadata) (*Recorder, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	dir := s.Dir(meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(dir, framesFile))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", framesFile, err)
	}
	return &Recorder{Meta: meta, dir: dir, file: f}, nil
}

func (r *Recorder) WriteFrame(frame Frame) error {
	rows := make([]frameRow, len(frame.Bodies))
	for i, st := range frame.Bodies {
		rows[i] = frameRow{
			Sample:    r.Meta.Samples,
			ElapsedMS: float64(frame.Elapsed) / float64(time.Millisecond),
			Body:      st.ID,
			Color:     st.Color.String(),
			Radius:    st.Radius,
			X:         st.Position.X,
			Y:         st.Position.Y,
			VX:        st.Velocity.X,
			VY:        st.Velocity.Y,
		}
	}
	r.Meta.Samples++
	if len(rows) == 0 {
		return nil
	}

	if !r.headerWritten {
		if err := gocsv.Marshal(rows, r.file); err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, r.file); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Close finishes frames.csv and writes metadata.json from r.Meta.
func (r *Recorder) Close() error {
	if err := r.file.Close(); err != nil {
		return err
	}
	return writeJSON(filepath.Join(r.dir, metadataFile), r.Meta)
}

// Save records a whole run at once and returns its id.
func (s *Store) Save(meta RunMetadata, frames []Frame) (string, error) {
	rec, err := s.Create(meta)
	if err != nil {
		return "", err
	}
	for _, f := range frames {
		if err := rec.WriteFrame(f); err != nil {
			rec.file.Close()
			return "", err
		}
	}
	if err := rec.Close(); err != nil {
		return "", err
	}
	return rec.Meta.ID, nil
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

// List returns completed runs, oldest first.
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
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]Frame, error) {
	path := filepath.Join(s.Dir(runID), framesFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return []Frame{}, nil
	}

	var rows []frameRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("reading %s: %w", framesFile, err)
	}

	frames := make([]Frame, 0)
	for _, row := range rows {
		color, err := physics.ParseColor(row.Color)
		if err != nil {
			return nil, err
		}
		if row.Sample < 0 {
			return nil, fmt.Errorf("reading %s: negative sample %d", framesFile, row.Sample)
		}
		for len(frames) <= row.Sample {
			frames = append(frames, Frame{})
		}
		f := &frames[row.Sample]
		f.Elapsed = time.Duration(row.ElapsedMS * float64(time.Millisecond))
		f.Bodies = append(f.Bodies, physics.BodyState{
			ID:       row.Body,
			Color:    color,
			Radius:   row.Radius,
			Position: physics.Vec(row.X, row.Y),
			Velocity: physics.Vec(row.VX, row.VY),
		})
	}
	return frames, nil
}
