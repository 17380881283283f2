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

package device

import "sync"

// SampleFormat identifies the sample encoding a session was opened with.
// Fixed at open time and never varies mid-stream.
type SampleFormat int

const (
	FormatF32 SampleFormat = iota
	FormatI16
	FormatU16
)

// SampleSize returns the width of one sample in bytes.
func (f SampleFormat) SampleSize() int {
	if f == FormatF32 {
		return 4
	}
	return 2
}

func (f SampleFormat) String() string {
	switch f {
	case FormatF32:
		return "f32"
	case FormatI16:
		return "i16"
	case FormatU16:
		return "u16"
	}
	return "unknown"
}

// Client is the native audio client owned by a session: start/stop control
// and the render-side queue depth.
type Client interface {
	// Start begins audio flow on the device.
	Start() Status

	// Stop halts audio flow on the device.
	Stop() Status

	// CurrentPadding reports the number of frames queued in the device
	// buffer but not yet consumed.
	CurrentPadding() (uint32, Status)

	// Release frees the native client. Called exactly once, by the session.
	Release()
}

// RenderClient is the data-exchange interface of an output session.
type RenderClient interface {
	// AcquireBuffer claims a writable window of exactly the given number of
	// frames.
	AcquireBuffer(frames uint32) ([]byte, Status)

	// ReleaseBuffer submits that many frames back to the device.
	ReleaseBuffer(frames uint32) Status

	// Release frees the native interface. Called exactly once, by the session.
	Release()
}

// CaptureClient is the data-exchange interface of an input session.
type CaptureClient interface {
	// NextPacketSize reports the number of frames in the next pending
	// packet, or zero when the device has nothing to deliver.
	NextPacketSize() (uint32, Status)

	// AcquireBuffer claims the next pending packet for reading and reports
	// its length in frames.
	AcquireBuffer() ([]byte, uint32, Status)

	// ReleaseBuffer hands the packet back to the device.
	ReleaseBuffer(frames uint32) Status

	// Release frees the native interface. Called exactly once, by the session.
	Release()
}

// Flow is the direction-specific exchange interface of a session: exactly one
// of RenderFlow or CaptureFlow, matching the session's direction.
type Flow interface {
	flow()
	release()
}

// RenderFlow marks an output session and carries its render client.
type RenderFlow struct {
	Client RenderClient
}

// CaptureFlow marks an input session and carries its capture client.
type CaptureFlow struct {
	Client CaptureClient
}

func (RenderFlow) flow()  {}
func (CaptureFlow) flow() {}

func (f RenderFlow) release()  { f.Client.Release() }
func (f CaptureFlow) release() { f.Client.Release() }

// Session is an already-opened device endpoint, produced by a device
// provider and consumed by exactly one stream. The stream's run loop owns the
// session exclusively for its whole lifetime; nothing else may call device
// operations on it.
type Session struct {
	// Client is the native audio client.
	Client Client

	// Flow is the direction-specific exchange interface.
	Flow Flow

	// Ready is pulsed by the backend whenever a buffer needs servicing.
	Ready *Signal

	// MaxFrames is the capacity of the device buffer, fixed at open time.
	MaxFrames uint32

	// BytesPerFrame is the size of one frame across all channels.
	BytesPerFrame uint16

	// Format is the sample encoding the session was opened with.
	Format SampleFormat

	// Playing tracks the device state. Only the run loop transitions it,
	// via explicit play/pause commands. False at creation.
	Playing bool

	closeOnce sync.Once
}

// Close releases the exchange interface, then the native client, then the
// readiness signal. Runs at most once no matter how many exit paths reach it.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.Flow != nil {
			s.Flow.release()
		}
		if s.Client != nil {
			s.Client.Release()
		}
		if s.Ready != nil {
			s.Ready.Close()
		}
	})
}
