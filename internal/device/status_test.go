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
	"testing"

	"github.com/gordonklaus/portaudio"
)

func TestStreamError(t *testing.T) {
	tests := []struct {
		name       string
		status     Status
		wantNil    bool
		wantDevice bool
	}{
		{
			name:    "ok status",
			status:  StatusOK,
			wantNil: true,
		},
		{
			name:    "buffer empty is a success status",
			status:  Status{Code: CodeBufferEmpty},
			wantNil: true,
		},
		{
			name:       "device invalidated",
			status:     Status{Code: CodeDeviceInvalidated},
			wantDevice: true,
		},
		{
			name:   "backend failure",
			status: Status{Code: CodeBackendFailure, Detail: "host error 1234"},
		},
		{
			name:   "unknown negative code",
			status: Status{Code: -77},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := StreamError(tt.status)

			if tt.wantNil {
				if err != nil {
					t.Fatalf("StreamError(%v) = %v, want nil", tt.status, err)
				}
				return
			}

			if err == nil {
				t.Fatalf("StreamError(%v) = nil, want error", tt.status)
			}

			if tt.wantDevice {
				if !errors.Is(err, ErrDeviceNotAvailable) {
					t.Errorf("StreamError(%v) = %v, want ErrDeviceNotAvailable", tt.status, err)
				}
				return
			}

			var backendErr *BackendError
			if !errors.As(err, &backendErr) {
				t.Fatalf("StreamError(%v) = %v, want *BackendError", tt.status, err)
			}
			if backendErr.Description != tt.status.String() {
				t.Errorf("description = %q, want %q", backendErr.Description, tt.status.String())
			}
		})
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusOK, "ok"},
		{Status{Code: CodeBufferEmpty}, "buffer empty"},
		{Status{Code: CodeDeviceInvalidated}, "device invalidated"},
		{Status{Code: CodeBackendFailure, Detail: "boom"}, "device status -2: boom"},
		{Status{Code: -42}, "device status -42"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status{%d, %q}.String() = %q, want %q", tt.status.Code, tt.status.Detail, got, tt.want)
		}
	}
}

func TestBackendStatus(t *testing.T) {
	if st := BackendStatus(nil); !st.OK() {
		t.Errorf("BackendStatus(nil) = %v, want success", st)
	}

	st := BackendStatus(fmt.Errorf("stream is stopped"))
	if st.OK() {
		t.Fatal("BackendStatus(err) should be a failure status")
	}
	if st.Code != CodeBackendFailure {
		t.Errorf("code = %d, want CodeBackendFailure", st.Code)
	}
	if st.Detail != "stream is stopped" {
		t.Errorf("detail = %q, want error text", st.Detail)
	}
}

func TestStatusFromPortAudio(t *testing.T) {
	if st := statusFromPortAudio(nil); !st.OK() {
		t.Errorf("statusFromPortAudio(nil) = %v, want success", st)
	}

	if st := statusFromPortAudio(portaudio.DeviceUnavailable); st.Code != CodeDeviceInvalidated {
		t.Errorf("device unavailable mapped to code %d, want CodeDeviceInvalidated", st.Code)
	}

	st := statusFromPortAudio(fmt.Errorf("host API error"))
	if st.Code != CodeBackendFailure {
		t.Errorf("generic error mapped to code %d, want CodeBackendFailure", st.Code)
	}
	if st.Detail != "host API error" {
		t.Errorf("detail = %q, want error text", st.Detail)
	}
}

func TestSampleFormatSize(t *testing.T) {
	if got := FormatF32.SampleSize(); got != 4 {
		t.Errorf("f32 sample size = %d, want 4", got)
	}
	if got := FormatI16.SampleSize(); got != 2 {
		t.Errorf("i16 sample size = %d, want 2", got)
	}
	if got := FormatU16.SampleSize(); got != 2 {
		t.Errorf("u16 sample size = %d, want 2", got)
	}
}
