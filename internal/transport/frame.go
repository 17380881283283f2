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

package transport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/marlinaudio/marlin-go/internal/device"
)

// Binary frame protocol for streamed engine audio. One frame carries one
// serviced device buffer as raw PCM, tagged with its encoding and position in
// the stream.

// FrameType represents the type of frame being transmitted
type FrameType uint8

const (
	// FrameTypeAudioData carries one buffer of PCM samples
	FrameTypeAudioData FrameType = 0x01
	// FrameTypeAudioEnd marks the end of a stream
	FrameTypeAudioEnd FrameType = 0x02
)

// Wire values for the sample encoding carried in the frame header
const (
	WireFormatF32 uint8 = 0x00
	WireFormatI16 uint8 = 0x01
	WireFormatU16 uint8 = 0x02
)

// Frame represents a binary frame in the protocol
type Frame struct {
	Type       FrameType
	Format     uint8  // wire value of the sample encoding
	Sequence   uint32 // position of this frame in the stream
	Frames     uint32 // number of audio frames in the payload
	SampleRate uint32
	Timestamp  uint64 // Unix timestamp microseconds
	Data       []byte // raw PCM payload
}

// FrameHeader represents the fixed-size frame header (28 bytes)
type FrameHeader struct {
	Magic      uint32    // 0x4D524C4E ("MRLN")
	Type       FrameType // Frame type (1 byte)
	Format     uint8     // Sample encoding (1 byte)
	Length     uint16    // Data payload length (2 bytes)
	Sequence   uint32    // Sequence number (4 bytes)
	Frames     uint32    // Audio frame count (4 bytes)
	SampleRate uint32    // Sample rate in Hz (4 bytes)
	Timestamp  uint64    // Unix timestamp microseconds (8 bytes)
}

const (
	// FrameMagic is the magic number for frame validation
	FrameMagic = 0x4D524C4E // "MRLN" in big-endian

	// MaxFrameSize bounds one serialized frame; a 1024-frame f32 stereo
	// buffer fits with header to spare
	MaxFrameSize = 16384
	HeaderSize   = 28
	MaxDataSize  = MaxFrameSize - HeaderSize
)

// WireFormat maps a sample format to its wire value.
func WireFormat(format device.SampleFormat) (uint8, error) {
	switch format {
	case device.FormatF32:
		return WireFormatF32, nil
	case device.FormatI16:
		return WireFormatI16, nil
	case device.FormatU16:
		return WireFormatU16, nil
	}
	return 0, fmt.Errorf("unsupported sample format: %v", format)
}

// SampleFormat maps a wire value back to the sample format.
func SampleFormat(wire uint8) (device.SampleFormat, error) {
	switch wire {
	case WireFormatF32:
		return device.FormatF32, nil
	case WireFormatI16:
		return device.FormatI16, nil
	case WireFormatU16:
		return device.FormatU16, nil
	}
	return 0, fmt.Errorf("unknown wire sample format: 0x%02X", wire)
}

// Serialize converts a frame to binary format
func (f *Frame) Serialize() ([]byte, error) {
	if len(f.Data) > MaxDataSize {
		return nil, fmt.Errorf("frame data too large: %d bytes (max %d)", len(f.Data), MaxDataSize)
	}

	header := FrameHeader{
		Magic:      FrameMagic,
		Type:       f.Type,
		Format:     f.Format,
		Length:     uint16(len(f.Data)), //nolint:gosec // G115: bounded by MaxDataSize above
		Sequence:   f.Sequence,
		Frames:     f.Frames,
		SampleRate: f.SampleRate,
		Timestamp:  f.Timestamp,
	}

	buf := new(bytes.Buffer)

	// Write header in big-endian format
	if err := binary.Write(buf, binary.BigEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write frame header: %w", err)
	}

	if len(f.Data) > 0 {
		if _, err := buf.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to write frame data: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// DeserializeFrame converts binary data to a frame
func DeserializeFrame(data []byte) (*Frame, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("frame too small: %d bytes (min %d)", len(data), HeaderSize)
	}

	buf := bytes.NewReader(data)
	var header FrameHeader

	if err := binary.Read(buf, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read frame header: %w", err)
	}

	if header.Magic != FrameMagic {
		return nil, fmt.Errorf("invalid frame magic: 0x%08X (expected 0x%08X)", header.Magic, FrameMagic)
	}

	expectedSize := HeaderSize + int(header.Length)
	if len(data) != expectedSize {
		return nil, fmt.Errorf("frame size mismatch: got %d bytes, expected %d", len(data), expectedSize)
	}

	frame := &Frame{
		Type:       header.Type,
		Format:     header.Format,
		Sequence:   header.Sequence,
		Frames:     header.Frames,
		SampleRate: header.SampleRate,
		Timestamp:  header.Timestamp,
	}

	if header.Length > 0 {
		frame.Data = make([]byte, header.Length)
		if _, err := io.ReadFull(buf, frame.Data); err != nil {
			return nil, fmt.Errorf("failed to read frame data: %w", err)
		}
	}

	return frame, nil
}

// NewFrame creates a new frame with the specified parameters
func NewFrame(frameType FrameType, format uint8, sequence, frames, sampleRate uint32, timestamp uint64, data []byte) *Frame {
	return &Frame{
		Type:       frameType,
		Format:     format,
		Sequence:   sequence,
		Frames:     frames,
		SampleRate: sampleRate,
		Timestamp:  timestamp,
		Data:       data,
	}
}

// IsValid checks if the frame is structurally valid
func (f *Frame) IsValid() bool {
	return len(f.Data) <= MaxDataSize
}

// Size returns the total serialized size of the frame
func (f *Frame) Size() int {
	return HeaderSize + len(f.Data)
}
