/*
 * This file is part of Marlin (https://github.com/marlinaudio/marlin).
 * Copyright (C) 2026 Marlin Audio
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package nats

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/marlinaudio/marlin-go/internal/device"
	"github.com/marlinaudio/marlin-go/internal/engine"
	"github.com/marlinaudio/marlin-go/internal/transport"
)

// Receiver subscribes to one audio stream and feeds the received PCM into a
// render stream's data callbacks. Frames arriving while the queue is full are
// dropped; a render callback that outruns the network plays silence.
type Receiver struct {
	conn     Connection
	streamID string
	queue    chan *transport.Frame

	endOnce sync.Once
	end     chan struct{}

	// pending is the staging buffer consumed by the render callback. Only
	// the stream's background goroutine touches it.
	pending []byte
}

// NewReceiver creates a receiver for one stream with the given queue
// capacity.
func NewReceiver(conn Connection, streamID string, capacity int) *Receiver {
	return &Receiver{
		conn:     conn,
		streamID: streamID,
		queue:    make(chan *transport.Frame, capacity),
		end:      make(chan struct{}),
	}
}

// Start begins listening for audio frames.
func (r *Receiver) Start() error {
	subject := StreamSubject(r.streamID)
	if _, err := r.conn.Subscribe(subject, r.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	log.Printf("🎧 Subscribed to audio stream: %s", subject)
	return nil
}

// Frames returns the queue of received audio frames.
func (r *Receiver) Frames() <-chan *transport.Frame {
	return r.queue
}

// End is closed when the stream's end marker arrives.
func (r *Receiver) End() <-chan struct{} {
	return r.end
}

func (r *Receiver) handleMessage(msg *nats.Msg) {
	frame, err := transport.DeserializeFrame(msg.Data)
	if err != nil {
		log.Printf("❌ Failed to decode audio frame: %v", err)
		return
	}

	switch frame.Type {
	case transport.FrameTypeAudioData:
		select {
		case r.queue <- frame:
		default:
			log.Printf("⚠️  Frame queue full, dropping frame %d of stream %s", frame.Sequence, r.streamID)
		}
	case transport.FrameTypeAudioEnd:
		log.Printf("🏁 Stream %s ended at frame %d", r.streamID, frame.Sequence)
		r.endOnce.Do(func() { close(r.end) })
	default:
		log.Printf("⚠️  Unknown frame type 0x%02X on stream %s", uint8(frame.Type), r.streamID)
	}
}

// DataCallback returns the engine callback that fills render buffers from
// received frames, padding with silence when the queue runs dry. It runs on
// the stream's background goroutine.
func (r *Receiver) DataCallback(format device.SampleFormat) engine.DataCallback {
	return func(d engine.Data) {
		if d.Direction != engine.Output {
			return
		}
		r.buffer(d.Buffer.Len() * format.SampleSize())
		r.fill(d.Buffer)
	}
}

// buffer pulls queued frames into pending until need bytes are staged or the
// queue is empty.
func (r *Receiver) buffer(need int) {
	for len(r.pending) < need {
		select {
		case frame := <-r.queue:
			r.pending = append(r.pending, frame.Data...)
		default:
			return
		}
	}
}

// fill writes staged bytes into the typed view, zeroing whatever the staging
// buffer cannot cover.
func (r *Receiver) fill(b engine.Buffer) {
	switch b.Format() {
	case device.FormatF32:
		out := b.Float32()
		for i := range out {
			if (i+1)*4 <= len(r.pending) {
				out[i] = math.Float32frombits(binary.LittleEndian.Uint32(r.pending[i*4:]))
			} else {
				out[i] = 0
			}
		}
		r.consume(len(out) * 4)
	case device.FormatI16:
		out := b.Int16()
		for i := range out {
			if (i+1)*2 <= len(r.pending) {
				out[i] = int16(binary.LittleEndian.Uint16(r.pending[i*2:]))
			} else {
				out[i] = 0
			}
		}
		r.consume(len(out) * 2)
	case device.FormatU16:
		out := b.Uint16()
		for i := range out {
			if (i+1)*2 <= len(r.pending) {
				out[i] = binary.LittleEndian.Uint16(r.pending[i*2:])
			} else {
				out[i] = 0
			}
		}
		r.consume(len(out) * 2)
	}
}

func (r *Receiver) consume(n int) {
	if n >= len(r.pending) {
		r.pending = r.pending[:0]
		return
	}
	r.pending = r.pending[n:]
}
