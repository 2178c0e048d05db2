package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ballpit/internal/physics"
	"github.com/san-kum/ballpit/internal/storage"
)

func frames() []storage.Frame {
	return []storage.Frame{
		{Elapsed: 0, Bodies: []physics.BodyState{
			{ID: 0, Color: physics.Red, Radius: 10, Position: physics.Vec(50, 60), Velocity: physics.Vec(1, 0)},
			{ID: 1, Color: physics.Blue, Radius: 10, Position: physics.Vec(150, 60), Velocity: physics.Vec(0, 1)},
		}},
		{Elapsed: 1500 * time.Microsecond, Bodies: []physics.BodyState{
			{ID: 0, Color: physics.Red, Radius: 10, Position: physics.Vec(51, 60), Velocity: physics.Vec(1, 0)},
			{ID: 1, Color: physics.Blue, Radius: 10, Position: physics.Vec(150, 61), Velocity: physics.Vec(0, 1)},
		}},
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := storage.RunMetadata{ID: "run-1", Bodies: 2}
	require.NoError(t, JSON(&buf, meta, frames()))

	var got Data
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.Run.ID)
	require.Len(t, got.Frames, 2)
	assert.Equal(t, 1.5, got.Frames[1].ElapsedMS)
	assert.Equal(t, BodyData{ID: 1, Color: "blue", Pos: [2]float64{150, 61}, Vel: [2]float64{0, 1}}, got.Frames[1].Bodies[1])
}

func TestSVG(t *testing.T) {
	arena := physics.Arena{Width: 200, Height: 100}
	out := SVG(arena, frames(), 2)

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.True(t, strings.HasSuffix(out, "</svg>"))
	assert.Contains(t, out, `width="400" height="200"`)
	assert.Equal(t, 2, strings.Count(out, "<circle"))
	assert.Equal(t, 2, strings.Count(out, "<path"))
	assert.Contains(t, out, `<circle cx="102.0" cy="120.0" r="20.0" fill="#ff5f5f"/>`)
	assert.Contains(t, out, "M100.0,120.0 L102.0,120.0")
}

func TestSVGEmpty(t *testing.T) {
	out := SVG(physics.Arena{Width: 10, Height: 10}, nil, 0)
	assert.NotContains(t, out, "<circle")
	assert.True(t, strings.HasSuffix(out, "</svg>"))
}
