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

// marlind bridges one local audio device to a NATS audio stream: capture
// sessions publish their buffers, render sessions play back a subscribed
// stream.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/marlinaudio/marlin-go/config"
	"github.com/marlinaudio/marlin-go/internal/device"
	"github.com/marlinaudio/marlin-go/internal/engine"
	marlinnats "github.com/marlinaudio/marlin-go/internal/nats"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	natsURL := flag.String("nats", "", "NATS server URL (overrides config)")
	streamID := flag.String("id", "", "Stream identifier (overrides config)")
	direction := flag.String("direction", "", "Stream direction: capture or render (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *natsURL, *streamID, *direction)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func loadConfig(path, natsURL, streamID, direction string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if natsURL != "" {
		cfg.NATS.URL = natsURL
	}
	if streamID != "" {
		cfg.NATS.StreamID = streamID
	}
	if direction != "" {
		cfg.Device.Direction = direction
	}
	return cfg, nil
}

func sampleFormat(name string) (device.SampleFormat, error) {
	switch name {
	case "f32":
		return device.FormatF32, nil
	case "i16":
		return device.FormatI16, nil
	case "u16":
		return device.FormatU16, nil
	}
	return 0, fmt.Errorf("unknown sample format: %q", name)
}

func run(cfg *config.Config) error {
	format, err := sampleFormat(cfg.Device.Format)
	if err != nil {
		return err
	}

	provider := device.NewPortAudioProvider()
	if err := provider.Initialize(); err != nil {
		return err
	}
	defer func() { _ = provider.Terminate() }()

	conn, err := marlinnats.Connect(cfg.NATS.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	params := device.SessionParams{
		SampleRate:      cfg.Device.SampleRate,
		Channels:        cfg.Device.Channels,
		FramesPerBuffer: cfg.Device.FramesPerBuffer,
		Format:          format,
	}

	switch cfg.Device.Direction {
	case "capture":
		return runCapture(cfg, provider, conn, params, format)
	case "render":
		return runRender(cfg, provider, conn, params, format)
	}
	return fmt.Errorf("invalid device direction: %q", cfg.Device.Direction)
}

func runCapture(cfg *config.Config, provider *device.PortAudioProvider, conn marlinnats.Connection, params device.SessionParams, format device.SampleFormat) error {
	session, err := provider.OpenCaptureSession(params)
	if err != nil {
		return err
	}

	publisher, err := marlinnats.NewPublisher(conn, cfg.NATS.StreamID, uint32(params.SampleRate), params.Channels, format)
	if err != nil {
		session.Close()
		return err
	}

	streamErr := make(chan error, 1)
	stream := engine.New(session, publisher.DataCallback(), func(err error) {
		select {
		case streamErr <- err:
		default:
		}
	})
	defer stream.Close()

	stream.Play()
	log.Printf("🎙️ Publishing capture stream %s to %s", cfg.NATS.StreamID, publisher.Subject())

	if err := waitForExit(streamErr, nil); err != nil {
		return err
	}

	stream.Pause()
	if err := publisher.PublishEnd(); err != nil {
		log.Printf("⚠️ Failed to publish end-of-stream: %v", err)
	}
	return nil
}

func runRender(cfg *config.Config, provider *device.PortAudioProvider, conn marlinnats.Connection, params device.SessionParams, format device.SampleFormat) error {
	session, err := provider.OpenRenderSession(params)
	if err != nil {
		return err
	}

	receiver := marlinnats.NewReceiver(conn, cfg.NATS.StreamID, cfg.NATS.QueueCapacity)
	if err := receiver.Start(); err != nil {
		session.Close()
		return err
	}

	streamErr := make(chan error, 1)
	stream := engine.New(session, receiver.DataCallback(format), func(err error) {
		select {
		case streamErr <- err:
		default:
		}
	})
	defer stream.Close()

	stream.Play()
	log.Printf("🔊 Playing stream %s from %s", cfg.NATS.StreamID, marlinnats.StreamSubject(cfg.NATS.StreamID))

	return waitForExit(streamErr, receiver.End())
}

// waitForExit blocks until Ctrl-C, a fatal stream error, or end-of-stream.
func waitForExit(streamErr <-chan error, end <-chan struct{}) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	select {
	case <-interrupt:
		log.Println("👋 Shutting down")
		return nil
	case err := <-streamErr:
		return fmt.Errorf("stream failed: %w", err)
	case <-end:
		log.Println("🏁 Stream ended")
		return nil
	}
}
