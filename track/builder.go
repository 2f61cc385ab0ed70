package track

import (
	"fmt"
	"math"
)

// Section is one piece of a track layout: a straight when Radius is 0,
// otherwise an arc turning toward Turn ("left" or "right").
type Section struct {
	Length float64 `json:"length"`
	Radius float64 `json:"radius,omitempty"`
	Turn   string  `json:"turn,omitempty"`
}

// Def describes a track layout in sections.
type Def struct {
	Width        float64   `json:"width"`
	PatchLength  float64   `json:"patch_length"`
	Closed       bool      `json:"closed"`
	Start        Vec3      `json:"start"`
	StartHeading float64   `json:"start_heading_deg"`
	RacingLine   bool      `json:"racing_line"`
	Sections     []Section `json:"sections"`
}

// Build lays out patches along the sections of def.
func Build(def Def) (*Track, error) {
	if def.Width <= 0 {
		return nil, fmt.Errorf("invalid track width: %f", def.Width)
	}
	if def.PatchLength <= 0 {
		return nil, fmt.Errorf("invalid patch_length: %f", def.PatchLength)
	}
	if len(def.Sections) == 0 {
		return nil, fmt.Errorf("track has no sections")
	}

	pos := def.Start
	yaw := def.StartHeading * math.Pi / 180
	half := def.Width / 2

	edges := func(center Vec3, yaw float64) (Vec3, Vec3) {
		left := Heading(yaw + math.Pi/2).Scale(half)
		return center.Add(left), center.Sub(left)
	}

	var patches []Patch
	bl, br := edges(pos, yaw)
	for i, s := range def.Sections {
		if s.Length <= 0 {
			return nil, fmt.Errorf("section %d: invalid length %f", i, s.Length)
		}
		var sign float64
		switch s.Turn {
		case "", "straight":
		case "left":
			sign = 1
		case "right":
			sign = -1
		default:
			return nil, fmt.Errorf("section %d: unknown turn %q", i, s.Turn)
		}
		if s.Radius < 0 || (s.Radius > 0 && s.Radius < half) {
			return nil, fmt.Errorf("section %d: radius %f tighter than half the width", i, s.Radius)
		}

		n := int(math.Ceil(s.Length / def.PatchLength))
		step := s.Length / float64(n)
		for j := 0; j < n; j++ {
			if s.Radius == 0 || sign == 0 {
				pos = pos.Add(Heading(yaw).Scale(step))
			} else {
				dyaw := sign * step / s.Radius
				// chord of the arc
				chord := 2 * s.Radius * math.Sin(math.Abs(dyaw)/2)
				pos = pos.Add(Heading(yaw + dyaw/2).Scale(chord))
				yaw += dyaw
			}
			fl, fr := edges(pos, yaw)
			patches = append(patches, Patch{
				BackLeft:   bl,
				BackRight:  br,
				FrontLeft:  fl,
				FrontRight: fr,
			})
			bl, br = fl, fr
		}
	}

	t, err := New(patches, def.Closed)
	if err != nil {
		return nil, err
	}
	if def.RacingLine {
		GenerateRacingLine(t, DefaultRacingLineConfig())
	}
	return t, nil
}
