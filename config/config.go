// Package config loads the tuning knobs of the frame loop and descriptor allocators from TOML.
package config

import (
	"bytes"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/vkngwrapper/arsenal/lifetime/descriptors"
	"github.com/vkngwrapper/arsenal/lifetime/frames"
)

// ErrInvalidConfig is returned by Validate, and by Load and Parse for documents that decode but
// describe an unusable configuration
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Frames      FramesConfig      `toml:"frames"`
	Descriptors DescriptorsConfig `toml:"descriptors"`
	Log         LogConfig         `toml:"log"`
}

type FramesConfig struct {
	// Overlap is the number of frame slots in the ring
	Overlap int `toml:"overlap"`
	// FenceTimeout bounds the wait for a slot's previous submission before the device is
	// considered hung
	FenceTimeout Duration `toml:"fence_timeout"`
	// PausePollInterval is how long the loop sleeps between event polls while minimized
	PausePollInterval Duration `toml:"pause_poll_interval"`
}

type DescriptorsConfig struct {
	// InitialSets is the capacity of the first pool of each allocator
	InitialSets int `toml:"initial_sets"`
	// MaxSetsPerPool caps pool growth
	MaxSetsPerPool int           `toml:"max_sets_per_pool"`
	Ratios         []RatioConfig `toml:"ratios"`
}

// RatioConfig is the TOML form of descriptors.PoolSizeRatio. Type is one of the names accepted by
// ParseDescriptorType.
type RatioConfig struct {
	Type  string  `toml:"type"`
	Ratio float32 `toml:"ratio"`
}

type LogConfig struct {
	// Level is a level name understood by the demo's log handler: debug, info, warn or error
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is provided
func Default() Config {
	return Config{
		Frames: FramesConfig{
			Overlap:           frames.DefaultFrameOverlap,
			FenceTimeout:      Duration(frames.DefaultFenceTimeout),
			PausePollInterval: Duration(frames.DefaultPausePollInterval),
		},
		Descriptors: DescriptorsConfig{
			InitialSets:    1000,
			MaxSetsPerPool: descriptors.DefaultMaxSetsPerPool,
			Ratios: []RatioConfig{
				{Type: "storage_image", Ratio: 3},
				{Type: "storage_buffer", Ratio: 3},
				{Type: "uniform_buffer", Ratio: 3},
				{Type: "combined_image_sampler", Ratio: 4},
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads and parses the TOML file at path
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}

	config, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}

	return config, nil
}

// Parse decodes a TOML document over Default, so any key the document leaves out keeps its
// default value. A document that sets descriptors.ratios replaces the default ratio table.
func Parse(data []byte) (Config, error) {
	config := Default()

	var document Config
	err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&document)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}

	config.merge(document)

	err = config.Validate()
	if err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) merge(document Config) {
	if document.Frames.Overlap != 0 {
		c.Frames.Overlap = document.Frames.Overlap
	}
	if document.Frames.FenceTimeout != 0 {
		c.Frames.FenceTimeout = document.Frames.FenceTimeout
	}
	if document.Frames.PausePollInterval != 0 {
		c.Frames.PausePollInterval = document.Frames.PausePollInterval
	}
	if document.Descriptors.InitialSets != 0 {
		c.Descriptors.InitialSets = document.Descriptors.InitialSets
	}
	if document.Descriptors.MaxSetsPerPool != 0 {
		c.Descriptors.MaxSetsPerPool = document.Descriptors.MaxSetsPerPool
	}
	if document.Descriptors.Ratios != nil {
		c.Descriptors.Ratios = document.Descriptors.Ratios
	}
	if document.Log.Level != "" {
		c.Log.Level = document.Log.Level
	}
}

// Validate checks every value Parse would accept. Configs built in code should be validated
// before use.
func (c Config) Validate() error {
	if c.Frames.Overlap < 1 {
		return errors.Wrapf(ErrInvalidConfig, "frames.overlap must be at least 1, got %d", c.Frames.Overlap)
	}
	if c.Frames.FenceTimeout <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "frames.fence_timeout must be positive, got %s", c.Frames.FenceTimeout)
	}
	if c.Frames.PausePollInterval <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "frames.pause_poll_interval must be positive, got %s", c.Frames.PausePollInterval)
	}
	if c.Descriptors.InitialSets < 1 {
		return errors.Wrapf(ErrInvalidConfig, "descriptors.initial_sets must be at least 1, got %d", c.Descriptors.InitialSets)
	}
	if c.Descriptors.MaxSetsPerPool < 1 {
		return errors.Wrapf(ErrInvalidConfig, "descriptors.max_sets_per_pool must be at least 1, got %d", c.Descriptors.MaxSetsPerPool)
	}

	_, err := c.Descriptors.PoolSizeRatios()
	return err
}

// PoolSizeRatios converts the ratio table to the allocator's form
func (d DescriptorsConfig) PoolSizeRatios() ([]descriptors.PoolSizeRatio, error) {
	if len(d.Ratios) == 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "descriptors.ratios must not be empty")
	}

	ratios := make([]descriptors.PoolSizeRatio, 0, len(d.Ratios))
	for i, ratio := range d.Ratios {
		descriptorType, err := ParseDescriptorType(ratio.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "descriptors.ratios[%d]", i)
		}

		if !(ratio.Ratio > 0) {
			return nil, errors.Wrapf(ErrInvalidConfig, "descriptors.ratios[%d].ratio must be positive, got %g", i, ratio.Ratio)
		}

		ratios = append(ratios, descriptors.PoolSizeRatio{Type: descriptorType, Ratio: ratio.Ratio})
	}

	return ratios, nil
}

// AllocatorOptions returns the allocator options this configuration describes. name is reported
// in the allocator's statistics.
func (d DescriptorsConfig) AllocatorOptions(name string, flags descriptors.CreateFlags) descriptors.CreateOptions {
	return descriptors.CreateOptions{
		Flags:          flags,
		MaxSetsPerPool: d.MaxSetsPerPool,
		Name:           name,
	}
}

func (f FramesConfig) RingOptions() frames.RingOptions {
	return frames.RingOptions{
		FrameOverlap: f.Overlap,
	}
}

func (f FramesConfig) DriverOptions() frames.DriverOptions {
	return frames.DriverOptions{
		FenceTimeout:      time.Duration(f.FenceTimeout),
		PausePollInterval: time.Duration(f.PausePollInterval),
	}
}
