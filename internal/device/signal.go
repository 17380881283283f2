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

// Signal is an auto-reset event carrying no payload, only a wake pulse.
// Set from any goroutine coalesces with a pending pulse; a receive on C
// consumes exactly one pulse. Device backends pulse a Signal to report buffer
// readiness, and the stream handle pulses one to interrupt the run loop's
// wait.
type Signal struct {
	c chan struct{}
}

// NewSignal creates an unsignalled event.
func NewSignal() *Signal {
	return &Signal{c: make(chan struct{}, 1)}
}

// Set pulses the signal. Never blocks; pulses coalesce while unconsumed.
func (s *Signal) Set() {
	select {
	case s.c <- struct{}{}:
	default:
	}
}

// C returns the channel to wait on. Each receive consumes one pulse.
func (s *Signal) C() <-chan struct{} {
	return s.c
}

// Close discards any pending pulse. Safe to call more than once; the signal
// must not be Set or waited on afterwards.
func (s *Signal) Close() {
	select {
	case <-s.c:
	default:
	}
}
