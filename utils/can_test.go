package utils

import (
	"context"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"
)

const canHeader = "direction,frame_id,frame_name,cycle_ms,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default,unit,comment\n"

func loadRepoMap(t *testing.T) *CANMap {
	t.Helper()
	m, err := LoadCANMap("../config/can/can_map.csv")
	require.NoError(t, err)
	return m
}

func TestLoadCANMap(t *testing.T) {
	m := loadRepoMap(t)
	assert.Equal(t, []string{"AI_CONTROL_CMD", "AI_STATUS"}, m.FrameNames())

	fd, err := m.FrameByName("AI_CONTROL_CMD")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x200), fd.ID)
	assert.Equal(t, 8, fd.DLC)
	assert.Equal(t, "TX", fd.Direction)
	assert.Len(t, fd.Signals, 11)

	for i := 1; i < len(fd.Signals); i++ {
		assert.Less(t, fd.Signals[i-1].StartBit, fd.Signals[i].StartBit)
	}
	steer, ok := fd.Signal("steer")
	require.True(t, ok)
	assert.True(t, steer.Signed)

	_, err = m.FrameByID(0x7FF)
	assert.Error(t, err)
	_, err = m.FrameByName("NOPE")
	assert.ErrorContains(t, err, "AI_CONTROL_CMD")
}

func TestParseCANMapRejectsBadMaps(t *testing.T) {
	cases := map[string]string{
		"missing column": "frame_id,frame_name\n0x1,A\n",
		"bad number":     canHeader + "TX,0x1,A,10,8,s,zero,8,little,false,1,0,0,1,0,,\n",
		"bad endianness": canHeader + "TX,0x1,A,10,8,s,0,8,big,false,1,0,0,1,0,,\n",
		"bad dlc":        canHeader + "TX,0x1,A,10,9,s,0,8,little,false,1,0,0,1,0,,\n",
		"outside payload": canHeader +
			"TX,0x1,A,10,2,s,12,8,little,false,1,0,0,1,0,,\n",
		"overlap": canHeader +
			"TX,0x1,A,10,8,a,0,8,little,false,1,0,0,1,0,,\n" +
			"TX,0x1,A,10,8,b,4,8,little,false,1,0,0,1,0,,\n",
		"inconsistent dlc": canHeader +
			"TX,0x1,A,10,8,a,0,8,little,false,1,0,0,1,0,,\n" +
			"TX,0x1,A,10,4,b,8,8,little,false,1,0,0,1,0,,\n",
		"zero factor": canHeader + "TX,0x1,A,10,8,s,0,8,little,false,0,0,0,1,0,,\n",
		"min above max": canHeader + "TX,0x1,A,10,8,s,0,8,little,false,1,0,2,1,0,,\n",
		"duplicate name": canHeader +
			"TX,0x1,A,10,8,a,0,8,little,false,1,0,0,1,0,,\n" +
			"TX,0x2,A,10,8,b,0,8,little,false,1,0,0,1,0,,\n",
	}
	for name, csv := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCANMap(strings.NewReader(csv))
			assert.Error(t, err)
		})
	}
}

func TestEncodeDecodeControlFrame(t *testing.T) {
	m := loadRepoMap(t)

	values := map[string]float64{
		"steer":        -0.437,
		"throttle":     0.75,
		"brake":        0,
		"clutch":       1,
		"shift_up":     1,
		"abs":          1,
		"tcs":          0,
		"start_engine": 1,
		"vehicle_slot": 7,
	}
	f, err := m.EncodeEinrideFrame("AI_CONTROL_CMD", values)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x200), f.ID)
	assert.Equal(t, uint8(8), f.Length)

	fd, got, err := m.DecodeEinrideFrame(f)
	require.NoError(t, err)
	assert.Equal(t, "AI_CONTROL_CMD", fd.Name)
	for name, want := range values {
		sig, _ := fd.Signal(name)
		assert.InDelta(t, want, got[name], sig.Factor/2, name)
	}
	assert.Equal(t, 0.0, got["handbrake"], "missing signals take their default")
	assert.Equal(t, 0.0, got["shift_down"])

	payload, id, err := m.EncodeFrame("AI_CONTROL_CMD", values)
	require.NoError(t, err)
	assert.Equal(t, f.ID, id)
	assert.Equal(t, f.Data[:8], payload)

	again, err := m.DecodeFrame(id, payload)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestEncodeClampsToSignalRange(t *testing.T) {
	m := loadRepoMap(t)
	f, err := m.EncodeEinrideFrame("AI_CONTROL_CMD", map[string]float64{"steer": 3, "throttle": -1, "brake": 2})
	require.NoError(t, err)
	_, got, err := m.DecodeEinrideFrame(f)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got["steer"], 1e-9)
	assert.InDelta(t, 0.0, got["throttle"], 1e-9)
	assert.InDelta(t, 1.0, got["brake"], 1e-9)

	f, err = m.EncodeEinrideFrame("AI_CONTROL_CMD", map[string]float64{"steer": -1})
	require.NoError(t, err)
	assert.Equal(t, int64(-1000), f.Data.SignedBitsLittleEndian(0, 16))

	_, err = m.EncodeEinrideFrame("NOPE", nil)
	assert.Error(t, err)
	_, err = m.DecodeFrame(0x200, []byte{1, 2})
	assert.Error(t, err, "short payload")
}

func TestRawRanges(t *testing.T) {
	assert.Equal(t, uint64(0xFF), fieldMask(8))
	assert.Equal(t, ^uint64(0), fieldMask(64))
	assert.Equal(t, uint64(0), fieldMask(0))

	low, high := rawRange(16, true)
	assert.Equal(t, int64(-32768), low)
	assert.Equal(t, int64(32767), high)
	low, high = rawRange(10, false)
	assert.Equal(t, int64(0), low)
	assert.Equal(t, int64(1023), high)

	assert.Equal(t, int64(127), clampRaw(1000, 8, true))
	assert.Equal(t, int64(0), clampRaw(-5, 8, false))
}

func TestFramePublisher(t *testing.T) {
	m := loadRepoMap(t)
	w := NewMemoryCANWriter(2)

	_, err := NewFramePublisher(m, "AI_CONTROL_CMD", w, nil, "steer", "no_such_signal")
	assert.Error(t, err)

	p, err := NewFramePublisher(m, "AI_CONTROL_CMD", w, nil, "steer", "throttle", "brake")
	require.NoError(t, err)

	values := map[string]float64{"throttle": 0.5}
	for slot := 0; slot < 3; slot++ {
		require.NoError(t, p.Publish(context.Background(), slot, values))
	}
	assert.NotContains(t, values, SlotSignal)
	assert.Equal(t, uint64(3), p.Sent())

	frames := w.Frames()
	require.Len(t, frames, 2, "oldest frame dropped")
	_, got, err := m.DecodeEinrideFrame(frames[1])
	require.NoError(t, err)
	assert.Equal(t, 2.0, got[SlotSignal])
	assert.InDelta(t, 0.5, got["throttle"], 1e-3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.Publish(ctx, 0, values))
}

type chanReader struct{ frames chan can.Frame }

func (r chanReader) ReadFrame(ctx context.Context) (can.Frame, error) {
	select {
	case <-ctx.Done():
		return can.Frame{}, ctx.Err()
	case f, ok := <-r.frames:
		if !ok {
			return can.Frame{}, net.ErrClosed
		}
		return f, nil
	}
}

func (r chanReader) Close() error { return nil }

func TestMonitorCAN(t *testing.T) {
	m := loadRepoMap(t)
	r := chanReader{frames: make(chan can.Frame, 4)}

	cmd, err := m.EncodeEinrideFrame("AI_CONTROL_CMD", map[string]float64{"vehicle_slot": 1, "brake": 1})
	require.NoError(t, err)
	status, err := m.EncodeEinrideFrame("AI_STATUS", map[string]float64{"speed": 12.5, "gear": -1})
	require.NoError(t, err)
	r.frames <- cmd
	r.frames <- can.Frame{ID: 0x3FF, Length: 1}
	r.frames <- status
	close(r.frames)

	var names []string
	var speed, gear float64
	err = MonitorCAN(context.Background(), r, m, nil, func(fd *FrameDef, values map[string]float64) {
		names = append(names, fd.Name)
		if fd.Name == "AI_STATUS" {
			speed, gear = values["speed"], values["gear"]
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"AI_CONTROL_CMD", "AI_STATUS"}, names)
	assert.InDelta(t, 12.5, speed, 1e-9)
	assert.Equal(t, -1.0, gear)
}
