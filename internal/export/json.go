package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/ballpit/internal/storage"
)

type Data struct {
	Run    storage.RunMetadata `json:"run"`
	Frames []FrameData         `json:"frames"`
}

type FrameData struct {
	ElapsedMS float64    `json:"elapsed_ms"`
	Bodies    []BodyData `json:"bodies"`
}

type BodyData struct {
	ID    int        `json:"id"`
	Color string     `json:"color"`
	Pos   [2]float64 `json:"pos"`
	Vel   [2]float64 `json:"vel"`
}

func JSON(w io.Writer, meta storage.RunMetadata, frames []storage.Frame) error {
	data := Data{
		Run:    meta,
		Frames: make([]FrameData, len(frames)),
	}
	for i, f := range frames {
		fd := FrameData{
			ElapsedMS: float64(f.Elapsed.Microseconds()) / 1000,
			Bodies:    make([]BodyData, len(f.Bodies)),
		}
		for j, b := range f.Bodies {
			fd.Bodies[j] = BodyData{
				ID:    b.ID,
				Color: b.Color.String(),
				Pos:   [2]float64{b.Position.X, b.Position.Y},
				Vel:   [2]float64{b.Velocity.X, b.Velocity.Y},
			}
		}
		data.Frames[i] = fd
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
