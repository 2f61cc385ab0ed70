package utils

import (
	"context"
	"fmt"
)

// SlotSignal is the signal carrying the vehicle slot in per-vehicle frames.
const SlotSignal = "vehicle_slot"

// FramePublisher encodes named values into one frame of a CAN map and
// writes it, tagging each frame with the vehicle slot it belongs to.
type FramePublisher struct {
	m     *CANMap
	frame *FrameDef
	w     CANWriter
	log   *Logger
	sent  uint64
}

// NewFramePublisher checks that frameName exists and carries every signal in
// required.
func NewFramePublisher(m *CANMap, frameName string, w CANWriter, log *Logger, required ...string) (*FramePublisher, error) {
	fd, err := m.FrameByName(frameName)
	if err != nil {
		return nil, err
	}
	names := append(append([]string(nil), required...), SlotSignal)
	for _, name := range names {
		if _, ok := fd.Signal(name); !ok {
			return nil, fmt.Errorf("frame %s has no signal %q", frameName, name)
		}
	}
	log.Info("CAN: publishing %s (0x%X, %d signals, cycle %d ms)", fd.Name, fd.ID, len(fd.Signals), fd.CycleMS)
	return &FramePublisher{m: m, frame: fd, w: w, log: log}, nil
}

// Publish encodes values for vehicle slot and writes the frame. values is
// not modified.
func (p *FramePublisher) Publish(ctx context.Context, slot int, values map[string]float64) error {
	tagged := make(map[string]float64, len(values)+1)
	for k, v := range values {
		tagged[k] = v
	}
	tagged[SlotSignal] = float64(slot)

	f, err := p.m.EncodeEinrideFrame(p.frame.Name, tagged)
	if err != nil {
		return err
	}
	if err := p.w.WriteFrame(ctx, f); err != nil {
		return fmt.Errorf("write %s for slot %d: %w", p.frame.Name, slot, err)
	}
	p.sent++
	if p.log.Enabled(TRACE) {
		p.log.Trace("CAN TX %s slot=%d data=% X", p.frame.Name, slot, f.Data[:f.Length])
	}
	return nil
}

// Sent is the number of frames written so far.
func (p *FramePublisher) Sent() uint64 { return p.sent }

func (p *FramePublisher) Frame() *FrameDef { return p.frame }
