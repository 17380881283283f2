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
	"sync"

	"github.com/marlinaudio/marlin-go/internal/device"
)

// Stream is the handle callers hold on a running stream. It owns the
// background goroutine driving the device session; the session itself is
// handed over at construction and never touched from the handle again.
//
// Play and Pause are fire-and-forget: they enqueue a command, pulse the
// wake-up signal and return. Failures surface asynchronously through the
// error callback, never from these calls.
type Stream struct {
	commands  *commandQueue
	wake      *device.Signal
	done      chan struct{}
	closeOnce sync.Once
}

// New takes ownership of an opened session and starts its run loop. The data
// callback is invoked once per serviced device buffer; the error callback at
// most once, for the first fatal error, after which the loop terminates. Both
// run synchronously on the background goroutine.
func New(session *device.Session, dataCallback DataCallback, errorCallback ErrorCallback) *Stream {
	s := &Stream{
		commands: &commandQueue{},
		wake:     device.NewSignal(),
		done:     make(chan struct{}),
	}

	rc := &runContext{
		session:  session,
		wake:     s.wake,
		commands: s.commands,
	}

	go func() {
		defer close(s.done)
		defer session.Close()
		rc.run(dataCallback, errorCallback)
	}()

	return s
}

// Play transitions the device to playing. No-op if already playing.
func (s *Stream) Play() {
	s.push(CommandPlay)
}

// Pause transitions the device to stopped. No-op if already stopped.
func (s *Stream) Pause() {
	s.push(CommandPause)
}

// Close terminates the run loop, waits for it to exit and releases the
// wake-up signal. The session is closed by the loop on its way out, on every
// exit path. Safe to call more than once.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.push(CommandTerminate)
		<-s.done
		s.wake.Close()
	})
}

func (s *Stream) push(cmd Command) {
	s.commands.push(cmd)
	s.wake.Set()
}

// runContext is the state owned by the background goroutine. It never escapes
// the goroutine; the wake-up signal is the only object shared with the
// handle, and it carries no payload.
type runContext struct {
	session  *device.Session
	wake     *device.Signal
	commands *commandQueue
}

// run is the engine core. Per iteration: drain all pending commands, block on
// the signal set, and service the device when its readiness signal fired. Any
// translated device failure is delivered to the error callback exactly once
// and ends the loop.
func (rc *runContext) run(dataCallback DataCallback, errorCallback ErrorCallback) {
	for {
		running, err := rc.processCommands()
		if err != nil {
			errorCallback(err)
			return
		}
		if !running {
			return
		}

		// Index 0 is always the wake-up signal. When it fired, loop back to
		// re-check commands without touching the device.
		if rc.waitAny() == 0 {
			continue
		}

		switch flow := rc.session.Flow.(type) {
		case device.CaptureFlow:
			if err := rc.serviceCapture(flow.Client, dataCallback); err != nil {
				errorCallback(err)
				return
			}
		case device.RenderFlow:
			if err := rc.serviceRender(flow.Client, dataCallback); err != nil {
				errorCallback(err)
				return
			}
		}
	}
}

// processCommands applies every queued command in arrival order. Returns
// false once Terminate is seen; commands behind a Terminate are not applied.
// Play and Pause are idempotent against the session's playing state.
func (rc *runContext) processCommands() (bool, error) {
	for _, cmd := range rc.commands.drain() {
		switch cmd {
		case CommandPlay:
			if !rc.session.Playing {
				if err := device.StreamError(rc.session.Client.Start()); err != nil {
					return false, err
				}
				rc.session.Playing = true
			}
		case CommandPause:
			if rc.session.Playing {
				if err := device.StreamError(rc.session.Client.Stop()); err != nil {
					return false, err
				}
				rc.session.Playing = false
			}
		case CommandTerminate:
			return false, nil
		}
	}
	return true, nil
}

// waitAny blocks until a signal in the set fires and returns its index:
// 0 for the wake-up signal, 1 for device readiness. When both are pending the
// select's own choice governs; no further tie-break is applied.
func (rc *runContext) waitAny() int {
	select {
	case <-rc.wake.C():
		return 0
	case <-rc.session.Ready.C():
		return 1
	}
}

// serviceCapture drains every pending packet from the device: acquire, hand
// the typed view to the callback, release. A buffer-empty acquire is retried;
// the inner loop ends once the pending packet size reports zero.
func (rc *runContext) serviceCapture(capture device.CaptureClient, dataCallback DataCallback) error {
	for {
		frames, st := capture.NextPacketSize()
		if err := device.StreamError(st); err != nil {
			return err
		}
		if frames == 0 {
			return nil
		}

		raw, frames, st := capture.AcquireBuffer()
		if st.Code == device.CodeBufferEmpty {
			continue
		}
		if err := device.StreamError(st); err != nil {
			return err
		}

		window := raw[:int(frames)*int(rc.session.BytesPerFrame)]
		dataCallback(Data{Direction: Input, Buffer: view(window, rc.session.Format)})

		if err := device.StreamError(capture.ReleaseBuffer(frames)); err != nil {
			return err
		}
	}
}

// serviceRender fills the writable region of the device buffer: compute the
// available frames from the current padding, let the callback produce that
// many, release exactly that many. Zero available frames is an expected empty
// cycle, not an error.
func (rc *runContext) serviceRender(render device.RenderClient, dataCallback DataCallback) error {
	padding, st := rc.session.Client.CurrentPadding()
	if err := device.StreamError(st); err != nil {
		return err
	}
	frames := rc.session.MaxFrames - padding
	if frames == 0 {
		return nil
	}

	raw, st := render.AcquireBuffer(frames)
	if err := device.StreamError(st); err != nil {
		return err
	}

	window := raw[:int(frames)*int(rc.session.BytesPerFrame)]
	dataCallback(Data{Direction: Output, Buffer: view(window, rc.session.Format)})

	return device.StreamError(render.ReleaseBuffer(frames))
}
