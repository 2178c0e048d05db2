package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/ballpit/internal/physics"
	"github.com/san-kum/ballpit/internal/storage"
)

var fills = map[physics.Color]string{
	physics.Red:    "#ff5f5f",
	physics.Blue:   "#5f87ff",
	physics.Yellow: "#ffd75f",
}

func fill(c physics.Color) string {
	if f, ok := fills[c]; ok {
		return f
	}
	return "#00ff00"
}

// SVG draws the arena, a faint trail for every body across frames and the bodies
// as they are in the last frame. One arena unit maps to scale pixels; y grows
// downward as in the arena.
func SVG(arena physics.Arena, frames []storage.Frame, scale float64) string {
	if scale <= 0 {
		scale = 1
	}
	b := arena.Bounds()
	width := arena.Width * scale
	height := arena.Height * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<rect x="0" y="0" width="%.1f" height="%.1f" fill="none" stroke="#444444"/>
`, width, height, width, height, b.X*scale, b.Y*scale))

	if len(frames) == 0 {
		sb.WriteString("</svg>")
		return sb.String()
	}

	trails := map[int][]physics.BodyState{}
	for _, f := range frames {
		for _, st := range f.Bodies {
			trails[st.ID] = append(trails[st.ID], st)
		}
	}
	ids := make([]int, 0, len(trails))
	for id := range trails {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		trail := trails[id]
		if len(trail) < 2 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-opacity="0.35" stroke-width="1" d="M`, fill(trail[0].Color)))
		for i, st := range trail {
			if i > 0 {
				sb.WriteString(" L")
			}
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", st.Position.X*scale, st.Position.Y*scale))
		}
		sb.WriteString("\"/>\n")
	}

	for _, st := range frames[len(frames)-1].Bodies {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, st.Position.X*scale, st.Position.Y*scale, st.Radius*scale, fill(st.Color)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
