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

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Device DeviceConfig `yaml:"device"`
	NATS   NATSConfig   `yaml:"nats"`
}

type DeviceConfig struct {
	Direction       string  `yaml:"direction"` // "capture" or "render"
	SampleRate      float64 `yaml:"sample_rate"`
	Channels        int     `yaml:"channels"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	Format          string  `yaml:"format"` // "f32", "i16" or "u16"
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	StreamID      string `yaml:"stream_id"`
	QueueCapacity int    `yaml:"queue_capacity"`
}

// Default returns a config with every field at its default value.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Device.Direction == "" {
		c.Device.Direction = "capture"
	}
	if c.Device.SampleRate == 0 {
		c.Device.SampleRate = 44100
	}
	if c.Device.Channels == 0 {
		c.Device.Channels = 1
	}
	if c.Device.FramesPerBuffer == 0 {
		c.Device.FramesPerBuffer = 1024
	}
	if c.Device.Format == "" {
		c.Device.Format = "f32"
	}
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://localhost:4222"
	}
	if c.NATS.StreamID == "" {
		c.NATS.StreamID = "default"
	}
	if c.NATS.QueueCapacity == 0 {
		c.NATS.QueueCapacity = 64
	}
}

func (c *Config) validate() error {
	switch c.Device.Direction {
	case "capture", "render":
	default:
		return fmt.Errorf("invalid device direction: %q (want \"capture\" or \"render\")", c.Device.Direction)
	}
	switch c.Device.Format {
	case "f32", "i16", "u16":
	default:
		return fmt.Errorf("invalid sample format: %q (want \"f32\", \"i16\" or \"u16\")", c.Device.Format)
	}
	return nil
}
