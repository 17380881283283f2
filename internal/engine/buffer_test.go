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

package engine

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/marlinaudio/marlin-go/internal/device"
)

func TestViewSampleCounts(t *testing.T) {
	tests := []struct {
		name    string
		raw     int
		format  device.SampleFormat
		samples int
	}{
		{"f32 one buffer", 4096, device.FormatF32, 1024},
		{"i16 one buffer", 4096, device.FormatI16, 2048},
		{"u16 one buffer", 4096, device.FormatU16, 2048},
		{"f32 empty", 0, device.FormatF32, 0},
		{"i16 single sample", 2, device.FormatI16, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := view(make([]byte, tt.raw), tt.format)
			if b.Len() != tt.samples {
				t.Errorf("Len() = %d, want %d", b.Len(), tt.samples)
			}
			if b.Format() != tt.format {
				t.Errorf("Format() = %v, want %v", b.Format(), tt.format)
			}
		})
	}
}

func TestViewPopulatesExactlyOneSlice(t *testing.T) {
	raw := make([]byte, 8)

	b := view(raw, device.FormatF32)
	if b.Float32() == nil || b.Int16() != nil || b.Uint16() != nil {
		t.Error("f32 view should populate only the float32 slice")
	}

	b = view(raw, device.FormatI16)
	if b.Int16() == nil || b.Float32() != nil || b.Uint16() != nil {
		t.Error("i16 view should populate only the int16 slice")
	}

	b = view(raw, device.FormatU16)
	if b.Uint16() == nil || b.Float32() != nil || b.Int16() != nil {
		t.Error("u16 view should populate only the uint16 slice")
	}
}

func TestViewIsZeroCopy(t *testing.T) {
	raw := make([]byte, 8)

	// Writes through the view land in the raw window.
	b := view(raw, device.FormatF32)
	b.Float32()[0] = 1.0
	b.Float32()[1] = -0.5

	if got := math.Float32frombits(binary.LittleEndian.Uint32(raw[0:])); got != 1.0 {
		t.Errorf("raw[0:4] = %f, want 1.0", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(raw[4:])); got != -0.5 {
		t.Errorf("raw[4:8] = %f, want -0.5", got)
	}

	// And reads through the view see the raw window.
	sample := int16(-123)
	binary.LittleEndian.PutUint16(raw[0:], uint16(sample))
	i := view(raw, device.FormatI16)
	if i.Int16()[0] != -123 {
		t.Errorf("view sample = %d, want -123", i.Int16()[0])
	}
}
