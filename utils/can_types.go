package utils

import (
	"fmt"
	"sort"
)

// SignalDef is one signal of a frame in the CAN map. Only little-endian
// layouts are supported.
type SignalDef struct {
	Name       string
	StartBit   int
	BitLength  int
	Signed     bool
	Factor     float64
	Offset     float64
	Min        float64
	Max        float64
	Default    float64
	Unit       string
	Comment    string
	Endianness string
}

// Raw converts a physical value to the raw integer sent on the bus,
// clamped to the signal's physical and bit ranges.
func (s SignalDef) Raw(v float64) int64 {
	v = clamp(v, s.Min, s.Max)
	return clampRaw(roundRaw((v-s.Offset)/s.Factor), s.BitLength, s.Signed)
}

// Physical converts a raw bus value to its physical value.
func (s SignalDef) Physical(raw int64) float64 {
	return float64(raw)*s.Factor + s.Offset
}

// FrameDef is one frame of the CAN map.
type FrameDef struct {
	ID        uint32
	Name      string
	DLC       int
	Direction string // "TX" or "RX", as seen from this process
	CycleMS   int
	Signals   []SignalDef
}

// Signal returns the named signal.
func (f *FrameDef) Signal(name string) (SignalDef, bool) {
	for _, s := range f.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return SignalDef{}, false
}

// validate checks that every signal fits in the payload and that no two
// signals share a bit.
func (f *FrameDef) validate() error {
	var used uint64
	for _, s := range f.Signals {
		if s.StartBit < 0 || s.StartBit+s.BitLength > 8*f.DLC {
			return fmt.Errorf("frame %s signal %s: bits %d..%d outside %d-byte payload",
				f.Name, s.Name, s.StartBit, s.StartBit+s.BitLength-1, f.DLC)
		}
		if s.Factor == 0 {
			return fmt.Errorf("frame %s signal %s: zero factor", f.Name, s.Name)
		}
		bits := fieldMask(s.BitLength) << s.StartBit
		if used&bits != 0 {
			return fmt.Errorf("frame %s signal %s overlaps another signal", f.Name, s.Name)
		}
		used |= bits
	}
	return nil
}

// CANMap indexes frame definitions by ID and by name.
type CANMap struct {
	ByID   map[uint32]*FrameDef
	ByName map[string]*FrameDef
}

func (m *CANMap) FrameNames() []string {
	out := make([]string, 0, len(m.ByName))
	for k := range m.ByName {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *CANMap) FrameByName(name string) (*FrameDef, error) {
	fd, ok := m.ByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown frame %q (available: %v)", name, m.FrameNames())
	}
	return fd, nil
}

func (m *CANMap) FrameByID(id uint32) (*FrameDef, error) {
	fd, ok := m.ByID[id]
	if !ok {
		return nil, fmt.Errorf("unknown frame id 0x%X", id)
	}
	return fd, nil
}
