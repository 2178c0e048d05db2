package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ballpit/internal/physics"
	"github.com/san-kum/ballpit/internal/sim"
)

func sampleFrames() []Frame {
	return []Frame{
		{
			Elapsed: 0,
			Bodies: []physics.BodyState{
				{ID: 0, Color: physics.Red, Radius: 10, Position: physics.Vec(100, 120), Velocity: physics.Vec(1.5, -2)},
				{ID: 1, Color: physics.Yellow, Radius: 10, Position: physics.Vec(200, 220), Velocity: physics.Vec(0, 3)},
			},
		},
		{
			Elapsed: 250 * time.Millisecond,
			Bodies: []physics.BodyState{
				{ID: 0, Color: physics.Red, Radius: 10, Position: physics.Vec(101.5, 118), Velocity: physics.Vec(1.5, -2)},
				{ID: 1, Color: physics.Yellow, Radius: 10, Position: physics.Vec(200, 223), Velocity: physics.Vec(0, 3)},
			},
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	meta := RunMetadata{
		Preset:   "sparse",
		Strategy: "per_body",
		Bodies:   2,
		Seed:     42,
		Tick:     100 * time.Millisecond,
		Arena:    physics.Arena{Width: 400, Height: 400},
		Stats:    sim.Stats{Bodies: 2, Steps: 40, Collisions: 1},
		Metrics:  map[string]float64{"kinetic_energy": 1.5},
	}
	runID, err := st.Save(meta, sampleFrames())
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	assert.NoError(t, err, "run id should be a uuid")

	got, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, got.ID)
	assert.Equal(t, "sparse", got.Preset)
	assert.Equal(t, uint64(42), got.Seed)
	assert.Equal(t, 2, got.Samples)
	assert.Equal(t, 100*time.Millisecond, got.Tick)
	assert.Equal(t, uint64(40), got.Stats.Steps)
	assert.Equal(t, 1.5, got.Metrics["kinetic_energy"])
	assert.False(t, got.Timestamp.IsZero())

	frames, err := st.LoadFrames(runID)
	require.NoError(t, err)
	assert.Equal(t, sampleFrames(), frames)
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	_, err = st.Save(RunMetadata{ID: "later", Timestamp: base.Add(time.Hour)}, nil)
	require.NoError(t, err)
	_, err = st.Save(RunMetadata{ID: "earlier", Timestamp: base}, nil)
	require.NoError(t, err)

	// An unfinished run has no metadata yet.
	rec, err := st.Create(RunMetadata{ID: "open"})
	require.NoError(t, err)
	defer rec.file.Close()

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "earlier", runs[0].ID)
	assert.Equal(t, "later", runs[1].ID)
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	require.NoError(t, st.Init())

	runID, err := st.Save(RunMetadata{}, sampleFrames())
	require.NoError(t, err)

	for _, name := range []string{"metadata.json", "frames.csv"} {
		_, err := os.Stat(filepath.Join(tmpDir, runID, name))
		assert.NoError(t, err, name)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, runID, "frames.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "sample,elapsed_ms,body,color,radius,x,y,vx,vy\n")
	assert.Contains(t, string(data), "1,250,1,yellow,10,200,223,0,3\n")
}

func TestStoreEmptyRun(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runID, err := st.Save(RunMetadata{}, []Frame{{Elapsed: time.Second}})
	require.NoError(t, err)

	frames, err := st.LoadFrames(runID)
	require.NoError(t, err)
	assert.Empty(t, frames)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, 1, meta.Samples)
}

func TestStoreNotFound(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	_, err := st.Load("missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
	_, err = st.LoadFrames("missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}
