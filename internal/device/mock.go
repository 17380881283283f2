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

// Mock device layer for hardware-independent testing. MockClient plus one of
// MockRenderClient/MockCaptureClient form a scripted session: tests enqueue
// packets, paddings and failure statuses, then inspect the recorded calls.

// MockClient implements Client with scripted start/stop results and a padding
// queue for the render path.
type MockClient struct {
	mu          sync.Mutex
	startCalls  int
	stopCalls   int
	startStatus Status
	stopStatus  Status
	paddings    []uint32
	padStatus   Status
	released    bool
}

// NewMockClient creates a client whose calls all succeed.
func NewMockClient() *MockClient {
	return &MockClient{startStatus: StatusOK, stopStatus: StatusOK, padStatus: StatusOK}
}

// SetStartStatus scripts the result of the next Start calls.
func (m *MockClient) SetStartStatus(st Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startStatus = st
}

// SetStopStatus scripts the result of the next Stop calls.
func (m *MockClient) SetStopStatus(st Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopStatus = st
}

// SetPaddingStatus scripts the result of CurrentPadding.
func (m *MockClient) SetPaddingStatus(st Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.padStatus = st
}

// QueuePadding enqueues padding values returned by successive CurrentPadding
// calls. Once the queue is exhausted CurrentPadding reports zero.
func (m *MockClient) QueuePadding(frames ...uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paddings = append(m.paddings, frames...)
}

// StartCalls returns how many times Start was issued.
func (m *MockClient) StartCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalls
}

// StopCalls returns how many times Stop was issued.
func (m *MockClient) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

// Released reports whether the session released the client.
func (m *MockClient) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

func (m *MockClient) Start() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startCalls++
	return m.startStatus
}

func (m *MockClient) Stop() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	return m.stopStatus
}

func (m *MockClient) CurrentPadding() (uint32, Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.padStatus.OK() {
		return 0, m.padStatus
	}
	if len(m.paddings) == 0 {
		return 0, m.padStatus
	}
	padding := m.paddings[0]
	m.paddings = m.paddings[1:]
	return padding, m.padStatus
}

func (m *MockClient) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = true
}

// MockRenderClient implements RenderClient. Each acquire hands out a fresh
// zeroed window; each release snapshots what the callback wrote so tests can
// inspect produced audio.
type MockRenderClient struct {
	mu             sync.Mutex
	bytesPerFrame  int
	acquired       []byte
	acquireStatus  Status
	releaseStatus  Status
	acquiredFrames []uint32
	releasedFrames []uint32
	submitted      [][]byte
	released       bool
}

// NewMockRenderClient creates a render client for the given frame size.
func NewMockRenderClient(bytesPerFrame int) *MockRenderClient {
	return &MockRenderClient{
		bytesPerFrame: bytesPerFrame,
		acquireStatus: StatusOK,
		releaseStatus: StatusOK,
	}
}

// SetAcquireStatus scripts the result of AcquireBuffer.
func (m *MockRenderClient) SetAcquireStatus(st Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquireStatus = st
}

// SetReleaseStatus scripts the result of ReleaseBuffer.
func (m *MockRenderClient) SetReleaseStatus(st Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseStatus = st
}

// AcquiredFrames returns the per-call acquire sizes.
func (m *MockRenderClient) AcquiredFrames() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint32, len(m.acquiredFrames))
	copy(out, m.acquiredFrames)
	return out
}

// ReleasedFrames returns the per-call release sizes.
func (m *MockRenderClient) ReleasedFrames() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint32, len(m.releasedFrames))
	copy(out, m.releasedFrames)
	return out
}

// Submitted returns the raw bytes of every released window.
func (m *MockRenderClient) Submitted() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.submitted))
	copy(out, m.submitted)
	return out
}

// Released reports whether the session released the client.
func (m *MockRenderClient) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

func (m *MockRenderClient) AcquireBuffer(frames uint32) ([]byte, Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.acquireStatus.OK() {
		return nil, m.acquireStatus
	}
	m.acquiredFrames = append(m.acquiredFrames, frames)
	m.acquired = make([]byte, int(frames)*m.bytesPerFrame)
	return m.acquired, m.acquireStatus
}

func (m *MockRenderClient) ReleaseBuffer(frames uint32) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.releaseStatus.OK() {
		return m.releaseStatus
	}
	m.releasedFrames = append(m.releasedFrames, frames)
	snapshot := make([]byte, len(m.acquired))
	copy(snapshot, m.acquired)
	m.submitted = append(m.submitted, snapshot)
	m.acquired = nil
	return m.releaseStatus
}

func (m *MockRenderClient) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = true
}

// MockCaptureClient implements CaptureClient over a queue of scripted
// packets. EmptyAcquires makes the next acquires report the transient
// buffer-empty status before the packet is handed out.
type MockCaptureClient struct {
	mu             sync.Mutex
	bytesPerFrame  int
	packets        [][]byte
	emptyAcquires  int
	sizeStatus     Status
	acquireStatus  Status
	releaseStatus  Status
	releasedFrames []uint32
	released       bool
}

// NewMockCaptureClient creates a capture client for the given frame size.
func NewMockCaptureClient(bytesPerFrame int) *MockCaptureClient {
	return &MockCaptureClient{
		bytesPerFrame: bytesPerFrame,
		sizeStatus:    StatusOK,
		acquireStatus: StatusOK,
		releaseStatus: StatusOK,
	}
}

// QueuePacket enqueues a raw packet to be delivered by later acquires.
func (m *MockCaptureClient) QueuePacket(raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pkt := make([]byte, len(raw))
	copy(pkt, raw)
	m.packets = append(m.packets, pkt)
}

// SetEmptyAcquires makes the next n AcquireBuffer calls report buffer-empty.
func (m *MockCaptureClient) SetEmptyAcquires(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emptyAcquires = n
}

// SetNextPacketSizeStatus scripts the result of NextPacketSize.
func (m *MockCaptureClient) SetNextPacketSizeStatus(st Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sizeStatus = st
}

// SetAcquireStatus scripts the result of AcquireBuffer.
func (m *MockCaptureClient) SetAcquireStatus(st Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquireStatus = st
}

// SetReleaseStatus scripts the result of ReleaseBuffer.
func (m *MockCaptureClient) SetReleaseStatus(st Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseStatus = st
}

// ReleasedFrames returns the per-call release sizes.
func (m *MockCaptureClient) ReleasedFrames() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint32, len(m.releasedFrames))
	copy(out, m.releasedFrames)
	return out
}

// Released reports whether the session released the client.
func (m *MockCaptureClient) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

func (m *MockCaptureClient) NextPacketSize() (uint32, Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.sizeStatus.OK() {
		return 0, m.sizeStatus
	}
	if len(m.packets) == 0 {
		return 0, m.sizeStatus
	}
	return uint32(len(m.packets[0]) / m.bytesPerFrame), m.sizeStatus
}

func (m *MockCaptureClient) AcquireBuffer() ([]byte, uint32, Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emptyAcquires > 0 {
		m.emptyAcquires--
		return nil, 0, Status{Code: CodeBufferEmpty}
	}
	if !m.acquireStatus.OK() {
		return nil, 0, m.acquireStatus
	}
	if len(m.packets) == 0 {
		return nil, 0, Status{Code: CodeBufferEmpty}
	}
	pkt := m.packets[0]
	return pkt, uint32(len(pkt) / m.bytesPerFrame), m.acquireStatus
}

func (m *MockCaptureClient) ReleaseBuffer(frames uint32) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.releaseStatus.OK() {
		return m.releaseStatus
	}
	if len(m.packets) > 0 {
		m.packets = m.packets[1:]
	}
	m.releasedFrames = append(m.releasedFrames, frames)
	return m.releaseStatus
}

func (m *MockCaptureClient) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = true
}

// NewMockRenderSession assembles an output session over mock clients.
func NewMockRenderSession(maxFrames uint32, bytesPerFrame uint16, format SampleFormat) (*Session, *MockClient, *MockRenderClient) {
	client := NewMockClient()
	render := NewMockRenderClient(int(bytesPerFrame))
	session := &Session{
		Client:        client,
		Flow:          RenderFlow{Client: render},
		Ready:         NewSignal(),
		MaxFrames:     maxFrames,
		BytesPerFrame: bytesPerFrame,
		Format:        format,
	}
	return session, client, render
}

// NewMockCaptureSession assembles an input session over mock clients.
func NewMockCaptureSession(maxFrames uint32, bytesPerFrame uint16, format SampleFormat) (*Session, *MockClient, *MockCaptureClient) {
	client := NewMockClient()
	capture := NewMockCaptureClient(int(bytesPerFrame))
	session := &Session{
		Client:        client,
		Flow:          CaptureFlow{Client: capture},
		Ready:         NewSignal(),
		MaxFrames:     maxFrames,
		BytesPerFrame: bytesPerFrame,
		Format:        format,
	}
	return session, client, capture
}
