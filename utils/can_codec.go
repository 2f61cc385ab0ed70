package utils

import (
	"fmt"

	"go.einride.tech/can"
)

// EncodeEinrideFrame packs values into the named frame. Signals missing from
// values take their default.
func (m *CANMap) EncodeEinrideFrame(frameName string, values map[string]float64) (can.Frame, error) {
	fd, err := m.FrameByName(frameName)
	if err != nil {
		return can.Frame{}, err
	}
	if fd.DLC <= 0 || fd.DLC > 8 {
		return can.Frame{}, fmt.Errorf("frame %s has invalid DLC %d", fd.Name, fd.DLC)
	}

	f := can.Frame{ID: fd.ID, Length: uint8(fd.DLC)}
	for _, s := range fd.Signals {
		v, ok := values[s.Name]
		if !ok {
			v = s.Default
		}
		raw := s.Raw(v)
		start, length := uint8(s.StartBit), uint8(s.BitLength)
		if s.Signed {
			f.Data.SetSignedBitsLittleEndian(start, length, raw)
		} else {
			f.Data.SetUnsignedBitsLittleEndian(start, length, uint64(raw))
		}
	}
	if err := f.Validate(); err != nil {
		return can.Frame{}, fmt.Errorf("frame %s: %w", fd.Name, err)
	}
	return f, nil
}

// EncodeFrame is EncodeEinrideFrame returning the raw payload and ID.
func (m *CANMap) EncodeFrame(frameName string, values map[string]float64) ([]byte, uint32, error) {
	f, err := m.EncodeEinrideFrame(frameName, values)
	if err != nil {
		return nil, 0, err
	}
	return append([]byte(nil), f.Data[:f.Length]...), f.ID, nil
}

// DecodeEinrideFrame unpacks a received frame into physical values by
// signal name. It also returns the frame definition that matched.
func (m *CANMap) DecodeEinrideFrame(f can.Frame) (*FrameDef, map[string]float64, error) {
	fd, err := m.FrameByID(f.ID)
	if err != nil {
		return nil, nil, err
	}
	if int(f.Length) < fd.DLC {
		return nil, nil, fmt.Errorf("frame 0x%X expects DLC %d, got %d", f.ID, fd.DLC, f.Length)
	}

	out := make(map[string]float64, len(fd.Signals))
	for _, s := range fd.Signals {
		start, length := uint8(s.StartBit), uint8(s.BitLength)
		var raw int64
		if s.Signed {
			raw = f.Data.SignedBitsLittleEndian(start, length)
		} else {
			raw = int64(f.Data.UnsignedBitsLittleEndian(start, length))
		}
		out[s.Name] = s.Physical(raw)
	}
	return fd, out, nil
}

// DecodeFrame decodes a raw payload for frame ID frameID.
func (m *CANMap) DecodeFrame(frameID uint32, data []byte) (map[string]float64, error) {
	if len(data) > 8 {
		return nil, fmt.Errorf("frame 0x%X: payload of %d bytes", frameID, len(data))
	}
	f := can.Frame{ID: frameID, Length: uint8(len(data))}
	copy(f.Data[:], data)
	_, out, err := m.DecodeEinrideFrame(f)
	return out, err
}
