package utils

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

type CANWriter interface {
	WriteFrame(ctx context.Context, frame can.Frame) error
	Close() error
}

type SocketCANWriter struct {
	conn net.Conn
	tx   *socketcan.Transmitter
}

// NewSocketCANWriter opens a raw CAN socket on iface, e.g. "vcan0".
func NewSocketCANWriter(ctx context.Context, iface string) (*SocketCANWriter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &SocketCANWriter{
		conn: conn,
		tx:   socketcan.NewTransmitter(conn),
	}, nil
}

func (w *SocketCANWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	return w.tx.TransmitFrame(ctx, frame)
}

func (w *SocketCANWriter) Close() error {
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

// MemoryCANWriter keeps written frames in memory. It stands in for the bus
// when no interface is configured.
type MemoryCANWriter struct {
	mu     sync.Mutex
	frames []can.Frame
	limit  int
}

// NewMemoryCANWriter keeps at most limit frames, dropping the oldest; zero
// keeps none and only counts.
func NewMemoryCANWriter(limit int) *MemoryCANWriter {
	return &MemoryCANWriter{limit: limit}
}

func (w *MemoryCANWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.limit <= 0 {
		return nil
	}
	if len(w.frames) == w.limit {
		copy(w.frames, w.frames[1:])
		w.frames = w.frames[:len(w.frames)-1]
	}
	w.frames = append(w.frames, frame)
	return nil
}

// Frames returns a copy of the kept frames, oldest first.
func (w *MemoryCANWriter) Frames() []can.Frame {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]can.Frame(nil), w.frames...)
}

func (w *MemoryCANWriter) Close() error { return nil }
