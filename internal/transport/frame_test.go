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
	"testing"

	"github.com/marlinaudio/marlin-go/internal/device"
)

func TestFrameRoundTrip(t *testing.T) {
	pcm := make([]byte, 4096)
	for i := range pcm {
		pcm[i] = byte(i)
	}

	original := NewFrame(FrameTypeAudioData, WireFormatF32, 42, 1024, 44100, 1234567890, pcm)

	data, err := original.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if len(data) != original.Size() {
		t.Errorf("serialized size = %d, want %d", len(data), original.Size())
	}

	decoded, err := DeserializeFrame(data)
	if err != nil {
		t.Fatalf("DeserializeFrame failed: %v", err)
	}

	if decoded.Type != FrameTypeAudioData {
		t.Errorf("type = 0x%02X, want 0x%02X", decoded.Type, FrameTypeAudioData)
	}
	if decoded.Format != WireFormatF32 {
		t.Errorf("format = 0x%02X, want 0x%02X", decoded.Format, WireFormatF32)
	}
	if decoded.Sequence != 42 {
		t.Errorf("sequence = %d, want 42", decoded.Sequence)
	}
	if decoded.Frames != 1024 {
		t.Errorf("frames = %d, want 1024", decoded.Frames)
	}
	if decoded.SampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100", decoded.SampleRate)
	}
	if decoded.Timestamp != 1234567890 {
		t.Errorf("timestamp = %d, want 1234567890", decoded.Timestamp)
	}
	if !bytes.Equal(decoded.Data, pcm) {
		t.Error("payload mismatch after round trip")
	}
}

func TestEndFrameRoundTrip(t *testing.T) {
	original := NewFrame(FrameTypeAudioEnd, WireFormatI16, 7, 0, 16000, 99, nil)

	data, err := original.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if len(data) != HeaderSize {
		t.Errorf("end frame size = %d, want header only (%d)", len(data), HeaderSize)
	}

	decoded, err := DeserializeFrame(data)
	if err != nil {
		t.Fatalf("DeserializeFrame failed: %v", err)
	}
	if decoded.Type != FrameTypeAudioEnd {
		t.Errorf("type = 0x%02X, want 0x%02X", decoded.Type, FrameTypeAudioEnd)
	}
	if len(decoded.Data) != 0 {
		t.Errorf("end frame should carry no payload, got %d bytes", len(decoded.Data))
	}
}

func TestSerializeRejectsOversizedPayload(t *testing.T) {
	frame := NewFrame(FrameTypeAudioData, WireFormatF32, 0, 0, 44100, 0, make([]byte, MaxDataSize+1))
	if _, err := frame.Serialize(); err == nil {
		t.Fatal("expected error for oversized payload")
	}
	if frame.IsValid() {
		t.Error("oversized frame should not be valid")
	}
}

func TestDeserializeErrors(t *testing.T) {
	valid, err := NewFrame(FrameTypeAudioData, WireFormatF32, 1, 2, 8000, 3, []byte{1, 2, 3, 4}).Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"truncated header", valid[:HeaderSize-1]},
		{"truncated payload", valid[:len(valid)-2]},
		{"trailing garbage", append(append([]byte{}, valid...), 0xFF)},
		{
			"bad magic",
			func() []byte {
				corrupted := append([]byte{}, valid...)
				binary.BigEndian.PutUint32(corrupted, 0xDEADBEEF)
				return corrupted
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DeserializeFrame(tt.data); err == nil {
				t.Error("expected deserialization error")
			}
		})
	}
}

func TestWireFormatMapping(t *testing.T) {
	formats := []device.SampleFormat{device.FormatF32, device.FormatI16, device.FormatU16}

	for _, format := range formats {
		wire, err := WireFormat(format)
		if err != nil {
			t.Fatalf("WireFormat(%v) failed: %v", format, err)
		}
		back, err := SampleFormat(wire)
		if err != nil {
			t.Fatalf("SampleFormat(0x%02X) failed: %v", wire, err)
		}
		if back != format {
			t.Errorf("round trip %v -> 0x%02X -> %v", format, wire, back)
		}
	}

	if _, err := SampleFormat(0x7F); err == nil {
		t.Error("expected error for unknown wire format")
	}
}
