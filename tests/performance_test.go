package tests

import (
	"testing"
	"time"

	"github.com/marlinaudio/marlin-go/internal/device"
	"github.com/marlinaudio/marlin-go/internal/engine"
	"github.com/marlinaudio/marlin-go/internal/transport"
)

// Performance benchmarks for critical path operations

func BenchmarkFrameSerialization(b *testing.B) {
	testCases := []struct {
		name     string
		dataSize int
	}{
		{"small_256_bytes", 256},
		{"buffer_4096_bytes", 4096},
		{"max_payload", transport.MaxDataSize},
	}

	for _, tc := range testCases {
		b.Run(tc.name, func(b *testing.B) {
			data := make([]byte, tc.dataSize)
			for i := range data {
				data[i] = byte(i % 256)
			}
			frame := transport.NewFrame(
				transport.FrameTypeAudioData,
				transport.WireFormatF32,
				0, uint32(tc.dataSize/4), 44100,
				uint64(time.Now().UnixMicro()),
				data,
			)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := frame.Serialize(); err != nil {
					b.Fatalf("Serialize failed: %v", err)
				}
			}
		})
	}
}

func BenchmarkFrameDeserialization(b *testing.B) {
	data := make([]byte, 4096)
	frame := transport.NewFrame(
		transport.FrameTypeAudioData,
		transport.WireFormatF32,
		0, 1024, 44100,
		uint64(time.Now().UnixMicro()),
		data,
	)
	payload, err := frame.Serialize()
	if err != nil {
		b.Fatalf("Serialize failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := transport.DeserializeFrame(payload); err != nil {
			b.Fatalf("DeserializeFrame failed: %v", err)
		}
	}
}

// One full capture service cycle: queue a packet, pulse readiness, wait for
// the callback. Measures loop overhead on top of the mock device.
func BenchmarkCaptureServiceCycle(b *testing.B) {
	session, _, capture := device.NewMockCaptureSession(1024, 4, device.FormatF32)

	served := make(chan struct{}, 1)
	stream := engine.New(session, func(engine.Data) {
		served <- struct{}{}
	}, func(err error) {
		b.Errorf("stream error: %v", err)
	})
	defer stream.Close()

	packet := make([]byte, 1024*4)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		capture.QueuePacket(packet)
		session.Ready.Set()
		<-served
	}
}

// Sustained capture throughput: a burst of device packets must drain without
// stalling the loop.
func TestPerformance_SustainedCapture(t *testing.T) {
	const packets = 200

	session, _, capture := device.NewMockCaptureSession(1024, 4, device.FormatF32)
	for i := 0; i < packets; i++ {
		capture.QueuePacket(make([]byte, 256*4))
	}

	served := 0
	done := make(chan struct{})
	stream := engine.New(session, func(engine.Data) {
		served++
		if served == packets {
			close(done)
		}
	}, func(err error) {
		t.Errorf("stream error: %v", err)
	})
	defer stream.Close()

	session.Ready.Set()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("drained %d of %d packets before timeout", served, packets)
	}
}
