package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

type CANReader interface {
	ReadFrame(ctx context.Context) (can.Frame, error)
	Close() error
}

// SocketCANReader receives frames from a raw CAN socket. A single goroutine
// owns the socket and hands frames over a channel, so ReadFrame can honor
// its context without leaking a reader per call.
type SocketCANReader struct {
	conn   net.Conn
	frames chan can.Frame
	done   chan struct{}
	once   sync.Once
	err    error
}

func NewSocketCANReader(ctx context.Context, iface string) (*SocketCANReader, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	r := &SocketCANReader{
		conn:   conn,
		frames: make(chan can.Frame, 64),
		done:   make(chan struct{}),
	}
	go r.receive(socketcan.NewReceiver(conn))
	return r, nil
}

func (r *SocketCANReader) receive(recv *socketcan.Receiver) {
	defer close(r.frames)
	for recv.Receive() {
		if recv.HasErrorFrame() {
			continue
		}
		select {
		case r.frames <- recv.Frame():
		case <-r.done:
			return
		}
	}
	r.err = recv.Err()
}

// ReadFrame blocks until a frame arrives, the socket closes or ctx ends.
func (r *SocketCANReader) ReadFrame(ctx context.Context) (can.Frame, error) {
	select {
	case <-ctx.Done():
		return can.Frame{}, ctx.Err()
	case f, ok := <-r.frames:
		if !ok {
			if r.err != nil {
				return can.Frame{}, fmt.Errorf("socketcan receive: %w", r.err)
			}
			return can.Frame{}, net.ErrClosed
		}
		return f, nil
	}
}

func (r *SocketCANReader) Close() error {
	var err error
	r.once.Do(func() {
		close(r.done)
		err = r.conn.Close()
	})
	return err
}

// FrameHandler receives each decoded frame.
type FrameHandler func(fd *FrameDef, values map[string]float64)

// MonitorCAN reads frames from r until ctx ends or the reader fails,
// decoding every frame found in m. Unknown IDs are logged at debug and
// skipped. It returns nil when ctx ends or the reader is closed.
func MonitorCAN(ctx context.Context, r CANReader, m *CANMap, log *Logger, fn FrameHandler) error {
	for {
		f, err := r.ReadFrame(ctx)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, net.ErrClosed):
			return nil
		case err != nil:
			return err
		}
		fd, values, err := m.DecodeEinrideFrame(f)
		if err != nil {
			log.Debug("monitor: %v", err)
			continue
		}
		fn(fd, values)
	}
}
