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
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioProvider opens device sessions backed by the real PortAudio
// library. It is the negotiation side of the engine: it picks the default
// device, sizes the buffers and hands back an opened Session; the run loop
// does everything after that.
type PortAudioProvider struct {
	mu          sync.Mutex
	initialized bool
}

// renderQueueDepth is how many hardware periods a render session buffers
// ahead of the device.
const renderQueueDepth = 2

// capturePacketLimit bounds the packet backlog of a capture session before
// the oldest packet is dropped.
const capturePacketLimit = 8

// NewPortAudioProvider creates a new PortAudio session provider
func NewPortAudioProvider() *PortAudioProvider {
	return &PortAudioProvider{}
}

// Initialize initializes the PortAudio subsystem
func (p *PortAudioProvider) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	p.initialized = true
	return nil
}

// Terminate terminates the PortAudio subsystem
func (p *PortAudioProvider) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil
	}

	err := portaudio.Terminate()
	p.initialized = false
	return err
}

// SessionParams holds parameters for session creation
type SessionParams struct {
	SampleRate      float64
	Channels        int
	FramesPerBuffer int
	Format          SampleFormat
}

func (sp SessionParams) bytesPerFrame() int {
	return sp.Channels * sp.Format.SampleSize()
}

func (sp SessionParams) validate() error {
	if sp.Format == FormatU16 {
		return fmt.Errorf("PortAudio has no unsigned 16-bit sample type")
	}
	if sp.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", sp.Channels)
	}
	if sp.FramesPerBuffer <= 0 {
		return fmt.Errorf("invalid frames per buffer: %d", sp.FramesPerBuffer)
	}
	if sp.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %f", sp.SampleRate)
	}
	return nil
}

// OpenCaptureSession opens the default input device as an engine session.
func (p *PortAudioProvider) OpenCaptureSession(params SessionParams) (*Session, error) {
	if err := p.checkInitialized(); err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	ready := NewSignal()
	st := newPAStream(params, ready)

	stream, err := portaudio.OpenDefaultStream(
		params.Channels, // input channels
		0,               // output channels (none for capture)
		params.SampleRate,
		params.FramesPerBuffer,
		st.hwBuffer(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	st.stream = stream

	capture := &paCaptureClient{st: st, bytesPerFrame: st.bytesPerFrame}
	st.capture = capture

	log.Printf("🎙️ Opened capture session: %.0f Hz, %d ch, %d frames/buffer, %s",
		params.SampleRate, params.Channels, params.FramesPerBuffer, params.Format)

	return &Session{
		Client:        &paClient{st: st},
		Flow:          CaptureFlow{Client: capture},
		Ready:         ready,
		MaxFrames:     uint32(params.FramesPerBuffer),
		BytesPerFrame: uint16(st.bytesPerFrame),
		Format:        params.Format,
	}, nil
}

// OpenRenderSession opens the default output device as an engine session.
func (p *PortAudioProvider) OpenRenderSession(params SessionParams) (*Session, error) {
	if err := p.checkInitialized(); err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	ready := NewSignal()
	st := newPAStream(params, ready)

	stream, err := portaudio.OpenDefaultStream(
		0,               // input channels (none for render)
		params.Channels, // output channels
		params.SampleRate,
		params.FramesPerBuffer,
		st.hwBuffer(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	st.stream = stream

	render := &paRenderClient{
		st:            st,
		bytesPerFrame: st.bytesPerFrame,
		periodFrames:  params.FramesPerBuffer,
		kick:          NewSignal(),
	}
	st.render = render

	log.Printf("🔊 Opened render session: %.0f Hz, %d ch, %d frames/buffer, %s",
		params.SampleRate, params.Channels, params.FramesPerBuffer, params.Format)

	return &Session{
		Client:        &paClient{st: st},
		Flow:          RenderFlow{Client: render},
		Ready:         ready,
		MaxFrames:     uint32(params.FramesPerBuffer * renderQueueDepth),
		BytesPerFrame: uint16(st.bytesPerFrame),
		Format:        params.Format,
	}, nil
}

func (p *PortAudioProvider) checkInitialized() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return fmt.Errorf("PortAudio not initialized")
	}
	return nil
}

func statusFromPortAudio(err error) Status {
	if err == nil {
		return StatusOK
	}
	if errors.Is(err, portaudio.DeviceUnavailable) {
		return Status{Code: CodeDeviceInvalidated}
	}
	return BackendStatus(err)
}

// paStream owns the portaudio stream and the pump goroutine exchanging
// hardware buffers with the session's packet queues. Exactly one of f32/i16
// is the buffer registered with PortAudio, matching the session format.
type paStream struct {
	stream        *portaudio.Stream
	ready         *Signal
	f32           []float32
	i16           []int16
	bytesPerFrame int

	capture *paCaptureClient
	render  *paRenderClient

	mu      sync.Mutex
	running bool
	quit    chan struct{}
	fail    Status
	wg      sync.WaitGroup
}

func newPAStream(params SessionParams, ready *Signal) *paStream {
	st := &paStream{
		ready:         ready,
		bytesPerFrame: params.bytesPerFrame(),
		fail:          StatusOK,
	}
	samples := params.FramesPerBuffer * params.Channels
	if params.Format == FormatF32 {
		st.f32 = make([]float32, samples)
	} else {
		st.i16 = make([]int16, samples)
	}
	return st
}

func (st *paStream) hwBuffer() interface{} {
	if st.f32 != nil {
		return st.f32
	}
	return st.i16
}

func (st *paStream) start() Status {
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.fail.OK() {
		return st.fail
	}
	if st.running {
		return StatusOK
	}
	if err := st.stream.Start(); err != nil {
		return statusFromPortAudio(err)
	}

	st.running = true
	st.quit = make(chan struct{})
	st.wg.Add(1)
	if st.capture != nil {
		go st.pumpCapture(st.quit)
	} else {
		go st.pumpRender(st.quit)
		// The whole device buffer is writable right away.
		st.ready.Set()
	}
	return StatusOK
}

func (st *paStream) stop() Status {
	st.mu.Lock()
	if !st.running {
		st.mu.Unlock()
		return StatusOK
	}
	st.running = false
	close(st.quit)
	st.mu.Unlock()

	if st.render != nil {
		st.render.kick.Set()
	}
	err := st.stream.Stop()
	st.wg.Wait()
	return statusFromPortAudio(err)
}

func (st *paStream) close() {
	st.stop()
	if err := st.stream.Close(); err != nil {
		log.Printf("⚠️ Failed to close PortAudio stream: %v", err)
	}
}

func (st *paStream) setFailure(s Status) {
	st.mu.Lock()
	if st.fail.OK() {
		st.fail = s
	}
	st.mu.Unlock()
	// Wake the run loop so the failure is observed on the next device call.
	st.ready.Set()
}

func (st *paStream) failure() Status {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.fail
}

func (st *paStream) stopped(quit chan struct{}) bool {
	select {
	case <-quit:
		return true
	default:
		return false
	}
}

// pumpCapture blocks on hardware reads and turns each filled buffer into a
// queued packet plus a readiness pulse.
func (st *paStream) pumpCapture(quit chan struct{}) {
	defer st.wg.Done()
	for {
		if st.stopped(quit) {
			return
		}
		if err := st.stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				// Overrun: frames were lost but the stream is intact.
				continue
			}
			if st.stopped(quit) {
				return
			}
			st.setFailure(statusFromPortAudio(err))
			return
		}
		st.capture.push(st.encodePacket())
		st.ready.Set()
	}
}

// pumpRender feeds released windows to the hardware one period at a time and
// pulses readiness as space frees up.
func (st *paStream) pumpRender(quit chan struct{}) {
	defer st.wg.Done()
	for {
		chunk, ok := st.render.nextChunk(quit)
		if !ok {
			return
		}
		st.decodeChunk(chunk)
		if err := st.stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			if st.stopped(quit) {
				return
			}
			st.setFailure(statusFromPortAudio(err))
			return
		}
		st.render.chunkPlayed()
		st.ready.Set()
	}
}

func (st *paStream) encodePacket() []byte {
	raw := make([]byte, st.bytesPerFrame*st.frames())
	if st.f32 != nil {
		for i, v := range st.f32 {
			binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
		}
	} else {
		for i, v := range st.i16 {
			binary.LittleEndian.PutUint16(raw[i*2:], uint16(v))
		}
	}
	return raw
}

// decodeChunk fills the hardware buffer from a released chunk, padding a
// short final chunk with silence.
func (st *paStream) decodeChunk(chunk []byte) {
	if st.f32 != nil {
		for i := range st.f32 {
			if (i+1)*4 <= len(chunk) {
				st.f32[i] = math.Float32frombits(binary.LittleEndian.Uint32(chunk[i*4:]))
			} else {
				st.f32[i] = 0
			}
		}
	} else {
		for i := range st.i16 {
			if (i+1)*2 <= len(chunk) {
				st.i16[i] = int16(binary.LittleEndian.Uint16(chunk[i*2:]))
			} else {
				st.i16[i] = 0
			}
		}
	}
}

func (st *paStream) frames() int {
	if st.f32 != nil {
		return len(st.f32) * 4 / st.bytesPerFrame
	}
	return len(st.i16) * 2 / st.bytesPerFrame
}

// paClient implements Client over a paStream.
type paClient struct {
	st *paStream
}

func (c *paClient) Start() Status {
	return c.st.start()
}

func (c *paClient) Stop() Status {
	return c.st.stop()
}

func (c *paClient) CurrentPadding() (uint32, Status) {
	if st := c.st.failure(); !st.OK() {
		return 0, st
	}
	if c.st.render != nil {
		return c.st.render.queuedFrames(), StatusOK
	}
	return 0, StatusOK
}

func (c *paClient) Release() {
	c.st.close()
}

// paCaptureClient queues hardware packets for the run loop. The head packet
// stays queued until the loop releases it.
type paCaptureClient struct {
	st            *paStream
	bytesPerFrame int

	mu      sync.Mutex
	packets [][]byte
}

func (c *paCaptureClient) push(pkt []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.packets) >= capturePacketLimit {
		// The loop is not keeping up; drop the oldest packet.
		c.packets = c.packets[1:]
		log.Printf("⚠️ Capture packet queue full, dropping oldest packet")
	}
	c.packets = append(c.packets, pkt)
}

func (c *paCaptureClient) NextPacketSize() (uint32, Status) {
	if st := c.st.failure(); !st.OK() {
		return 0, st
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.packets) == 0 {
		return 0, StatusOK
	}
	return uint32(len(c.packets[0]) / c.bytesPerFrame), StatusOK
}

func (c *paCaptureClient) AcquireBuffer() ([]byte, uint32, Status) {
	if st := c.st.failure(); !st.OK() {
		return nil, 0, st
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.packets) == 0 {
		return nil, 0, Status{Code: CodeBufferEmpty}
	}
	pkt := c.packets[0]
	return pkt, uint32(len(pkt) / c.bytesPerFrame), StatusOK
}

func (c *paCaptureClient) ReleaseBuffer(frames uint32) Status {
	if st := c.st.failure(); !st.OK() {
		return st
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.packets) > 0 {
		c.packets = c.packets[1:]
	}
	return StatusOK
}

func (c *paCaptureClient) Release() {
	c.mu.Lock()
	c.packets = nil
	c.mu.Unlock()
}

// paRenderClient stages the acquired window and feeds it to the pump in
// hardware-period chunks once released.
type paRenderClient struct {
	st            *paStream
	bytesPerFrame int
	periodFrames  int
	kick          *Signal

	mu     sync.Mutex
	staged []byte
	chunks [][]byte
	queued uint32
}

func (c *paRenderClient) AcquireBuffer(frames uint32) ([]byte, Status) {
	if st := c.st.failure(); !st.OK() {
		return nil, st
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staged = make([]byte, int(frames)*c.bytesPerFrame)
	return c.staged, StatusOK
}

func (c *paRenderClient) ReleaseBuffer(frames uint32) Status {
	if st := c.st.failure(); !st.OK() {
		return st
	}
	c.mu.Lock()
	chunkBytes := c.periodFrames * c.bytesPerFrame
	for off := 0; off < len(c.staged); off += chunkBytes {
		end := off + chunkBytes
		if end > len(c.staged) {
			end = len(c.staged)
		}
		c.chunks = append(c.chunks, c.staged[off:end])
	}
	c.staged = nil
	c.queued += frames
	c.mu.Unlock()
	c.kick.Set()
	return StatusOK
}

func (c *paRenderClient) Release() {
	c.mu.Lock()
	c.staged = nil
	c.chunks = nil
	c.mu.Unlock()
}

func (c *paRenderClient) queuedFrames() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queued
}

// nextChunk blocks until a released chunk is available or the stream stops.
func (c *paRenderClient) nextChunk(quit chan struct{}) ([]byte, bool) {
	for {
		c.mu.Lock()
		if len(c.chunks) > 0 {
			chunk := c.chunks[0]
			c.chunks = c.chunks[1:]
			c.mu.Unlock()
			return chunk, true
		}
		c.mu.Unlock()

		select {
		case <-quit:
			return nil, false
		case <-c.kick.C():
		}
	}
}

func (c *paRenderClient) chunkPlayed() {
	c.mu.Lock()
	played := uint32(c.periodFrames)
	if played > c.queued {
		played = c.queued
	}
	c.queued -= played
	c.mu.Unlock()
}
