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
	"unsafe"

	"github.com/marlinaudio/marlin-go/internal/device"
)

// Direction tags the data flowing through a callback.
type Direction int

const (
	// Input data was captured from the device.
	Input Direction = iota
	// Output data is to be produced for the device.
	Output
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// Buffer is an ephemeral typed window over one raw device buffer. Exactly one
// of the typed slices is populated, matching the session's sample format. The
// view aliases the device memory directly; it is valid only for the duration
// of a single callback and must not be retained.
type Buffer struct {
	format device.SampleFormat
	f32    []float32
	i16    []int16
	u16    []uint16
}

// view reinterprets a raw byte window as len(raw)/sampleSize samples of the
// given format. The single point where the three-way encoding dispatch
// happens for both data paths.
func view(raw []byte, format device.SampleFormat) Buffer {
	b := Buffer{format: format}
	n := len(raw) / format.SampleSize()
	if n == 0 {
		return b
	}
	base := unsafe.Pointer(&raw[0])
	switch format {
	case device.FormatF32:
		b.f32 = unsafe.Slice((*float32)(base), n)
	case device.FormatI16:
		b.i16 = unsafe.Slice((*int16)(base), n)
	case device.FormatU16:
		b.u16 = unsafe.Slice((*uint16)(base), n)
	}
	return b
}

// Format returns the sample encoding of the view.
func (b Buffer) Format() device.SampleFormat {
	return b.format
}

// Len returns the number of samples in the view.
func (b Buffer) Len() int {
	switch b.format {
	case device.FormatF32:
		return len(b.f32)
	case device.FormatI16:
		return len(b.i16)
	case device.FormatU16:
		return len(b.u16)
	}
	return 0
}

// Float32 returns the samples of an f32 view, nil for any other format.
func (b Buffer) Float32() []float32 { return b.f32 }

// Int16 returns the samples of an i16 view, nil for any other format.
func (b Buffer) Int16() []int16 { return b.i16 }

// Uint16 returns the samples of a u16 view, nil for any other format.
func (b Buffer) Uint16() []uint16 { return b.u16 }

// Data is what a data callback receives: one buffer view tagged with its
// direction. For Output, the callback fills the view before returning.
type Data struct {
	Direction Direction
	Buffer    Buffer
}

// DataCallback services one device buffer. It runs synchronously on the
// stream's background goroutine and must not block indefinitely.
type DataCallback func(Data)

// ErrorCallback receives the fatal stream error. Invoked at most once per
// stream; the run loop terminates immediately afterwards.
type ErrorCallback func(error)
