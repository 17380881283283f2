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
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/marlinaudio/marlin-go/internal/device"
	"github.com/marlinaudio/marlin-go/internal/engine"
	"github.com/marlinaudio/marlin-go/internal/transport"
)

// Connection interface for dependency injection
type Connection interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	Flush() error
	Close()
}

// ConnectionAdapter adapts *nats.Conn to the Connection interface
type ConnectionAdapter struct {
	conn *nats.Conn
}

func NewConnectionAdapter(conn *nats.Conn) *ConnectionAdapter {
	return &ConnectionAdapter{conn: conn}
}

func (a *ConnectionAdapter) Publish(subject string, data []byte) error {
	return a.conn.Publish(subject, data)
}

func (a *ConnectionAdapter) Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error) {
	return a.conn.Subscribe(subject, cb)
}

func (a *ConnectionAdapter) Flush() error {
	return a.conn.Flush()
}

func (a *ConnectionAdapter) Close() {
	a.conn.Close()
}

// Connect dials the NATS server with retry.
func Connect(natsURL string) (*ConnectionAdapter, error) {
	var nc *nats.Conn
	var err error

	for i := 0; i < 5; i++ {
		nc, err = nats.Connect(natsURL)
		if err == nil {
			break
		}
		log.Printf("⚠️  Failed to connect to NATS (attempt %d/5): %v", i+1, err)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS after 5 attempts: %w", err)
	}

	log.Printf("✅ Connected to NATS at %s", natsURL)
	return NewConnectionAdapter(nc), nil
}

// StreamSubject returns the subject a stream's frames travel on.
func StreamSubject(streamID string) string {
	return fmt.Sprintf("audio.stream.%s", streamID)
}

// Publisher turns a capture stream's data callbacks into binary audio frames
// on a NATS subject. Publishing is fire-and-forget: a failed publish is
// logged and the stream keeps running.
type Publisher struct {
	conn       Connection
	streamID   string
	subject    string
	sampleRate uint32
	channels   int
	wireFormat uint8
	seq        atomic.Uint32
}

// NewPublisher creates a publisher for one capture stream.
func NewPublisher(conn Connection, streamID string, sampleRate uint32, channels int, format device.SampleFormat) (*Publisher, error) {
	wire, err := transport.WireFormat(format)
	if err != nil {
		return nil, err
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}
	return &Publisher{
		conn:       conn,
		streamID:   streamID,
		subject:    StreamSubject(streamID),
		sampleRate: sampleRate,
		channels:   channels,
		wireFormat: wire,
	}, nil
}

// Subject returns the subject frames are published on.
func (p *Publisher) Subject() string {
	return p.subject
}

// DataCallback returns the engine callback that publishes each captured
// buffer. It runs on the stream's background goroutine.
func (p *Publisher) DataCallback() engine.DataCallback {
	return func(d engine.Data) {
		if d.Direction != engine.Input {
			return
		}

		data := encodeSamples(d.Buffer)
		frame := transport.NewFrame(
			transport.FrameTypeAudioData,
			p.wireFormat,
			p.seq.Add(1)-1,
			uint32(d.Buffer.Len()/p.channels),
			p.sampleRate,
			timestampMicros(time.Now()),
			data,
		)

		payload, err := frame.Serialize()
		if err != nil {
			log.Printf("❌ Failed to serialize audio frame: %v", err)
			return
		}
		if err := p.conn.Publish(p.subject, payload); err != nil {
			log.Printf("❌ Failed to publish audio frame: %v", err)
		}
	}
}

// PublishEnd publishes the end-of-stream marker and flushes the connection.
func (p *Publisher) PublishEnd() error {
	frame := transport.NewFrame(
		transport.FrameTypeAudioEnd,
		p.wireFormat,
		p.seq.Add(1)-1,
		0,
		p.sampleRate,
		timestampMicros(time.Now()),
		nil,
	)
	payload, err := frame.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize end frame: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("failed to publish end frame: %w", err)
	}
	return p.conn.Flush()
}

// encodeSamples converts a typed buffer view to little-endian PCM bytes.
func encodeSamples(b engine.Buffer) []byte {
	switch b.Format() {
	case device.FormatF32:
		samples := b.Float32()
		data := make([]byte, len(samples)*4)
		for i, v := range samples {
			binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
		}
		return data
	case device.FormatI16:
		samples := b.Int16()
		data := make([]byte, len(samples)*2)
		for i, v := range samples {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
		}
		return data
	case device.FormatU16:
		samples := b.Uint16()
		data := make([]byte, len(samples)*2)
		for i, v := range samples {
			binary.LittleEndian.PutUint16(data[i*2:], v)
		}
		return data
	}
	return nil
}

// timestampMicros safely converts time to microseconds
func timestampMicros(t time.Time) uint64 {
	micros := t.UnixNano() / 1000
	if micros < 0 {
		return 0
	}
	return uint64(micros)
}
