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

import "fmt"

// Status codes reported by native device calls. Backends map their own error
// space onto these before a session ever reaches the run loop. Non-negative
// codes are success statuses, negative codes are failures.
const (
	// CodeOK indicates the call completed normally.
	CodeOK int32 = 0

	// CodeBufferEmpty indicates an acquire raced the hardware and found no
	// data. It is a success status: the capture path retries the acquire and
	// never surfaces it.
	CodeBufferEmpty int32 = 1

	// CodeDeviceInvalidated indicates the device was disconnected or torn
	// down underneath the session.
	CodeDeviceInvalidated int32 = -1

	// CodeBackendFailure is the generic failure code for backends without a
	// more specific mapping. Detail carries the native error text.
	CodeBackendFailure int32 = -2
)

// Status is the raw result of a native device call.
type Status struct {
	Code   int32
	Detail string
}

// StatusOK is the zero status returned by successful calls.
var StatusOK = Status{Code: CodeOK}

// OK reports whether the status is a success status.
func (s Status) OK() bool {
	return s.Code >= 0
}

// String returns the human-readable form of the status.
func (s Status) String() string {
	switch s.Code {
	case CodeOK:
		return "ok"
	case CodeBufferEmpty:
		return "buffer empty"
	case CodeDeviceInvalidated:
		return "device invalidated"
	}
	if s.Detail != "" {
		return fmt.Sprintf("device status %d: %s", s.Code, s.Detail)
	}
	return fmt.Sprintf("device status %d", s.Code)
}

// BackendStatus wraps an arbitrary backend error as a failure status.
func BackendStatus(err error) Status {
	if err == nil {
		return StatusOK
	}
	return Status{Code: CodeBackendFailure, Detail: err.Error()}
}
