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

import (
	"errors"
	"fmt"
)

// ErrDeviceNotAvailable is returned when the device backing a session has
// been disconnected or invalidated. It is terminal: recovery requires opening
// a new session.
var ErrDeviceNotAvailable = errors.New("the requested device is no longer available")

// BackendError is an opaque native failure carrying the backend's own
// description. Like ErrDeviceNotAvailable it is terminal for the stream that
// observed it.
type BackendError struct {
	Description string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("a backend-specific error has occurred: %s", e.Description)
}

// StreamError translates a native status into the stream error taxonomy.
// Success statuses (including the transient buffer-empty status) translate to
// nil; whether buffer-empty warrants a retry is the caller's decision.
func StreamError(st Status) error {
	if st.OK() {
		return nil
	}
	if st.Code == CodeDeviceInvalidated {
		return ErrDeviceNotAvailable
	}
	return &BackendError{Description: st.String()}
}
