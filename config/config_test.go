package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/lifetime/descriptors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func TestDefaultIsValid(t *testing.T) {
	config := Default()
	require.NoError(t, config.Validate())

	ratios, err := config.Descriptors.PoolSizeRatios()
	require.NoError(t, err)
	require.Equal(t, []descriptors.PoolSizeRatio{
		{Type: core1_0.DescriptorTypeStorageImage, Ratio: 3},
		{Type: core1_0.DescriptorTypeStorageBuffer, Ratio: 3},
		{Type: core1_0.DescriptorTypeUniformBuffer, Ratio: 3},
		{Type: core1_0.DescriptorTypeCombinedImageSampler, Ratio: 4},
	}, ratios)

	require.Equal(t, 2, config.Frames.RingOptions().FrameOverlap)
	require.Equal(t, time.Second, config.Frames.DriverOptions().FenceTimeout)
}

func TestParseOverridesDefaults(t *testing.T) {
	config, err := Parse([]byte(`
[frames]
overlap = 3
fence_timeout = "250ms"

[descriptors]
initial_sets = 16

[[descriptors.ratios]]
type = "uniform_buffer"
ratio = 2.0

[[descriptors.ratios]]
type = "Combined_Image_Sampler"
ratio = 0.5
`))
	require.NoError(t, err)

	require.Equal(t, 3, config.Frames.Overlap)
	require.Equal(t, 250*time.Millisecond, time.Duration(config.Frames.FenceTimeout))
	require.Equal(t, 100*time.Millisecond, config.Frames.DriverOptions().PausePollInterval)
	require.Equal(t, 16, config.Descriptors.InitialSets)
	require.Equal(t, descriptors.DefaultMaxSetsPerPool, config.Descriptors.MaxSetsPerPool)
	require.Equal(t, "info", config.Log.Level)

	ratios, err := config.Descriptors.PoolSizeRatios()
	require.NoError(t, err)
	require.Equal(t, []descriptors.PoolSizeRatio{
		{Type: core1_0.DescriptorTypeUniformBuffer, Ratio: 2},
		{Type: core1_0.DescriptorTypeCombinedImageSampler, Ratio: 0.5},
	}, ratios)

	options := config.Descriptors.AllocatorOptions("frame 0", descriptors.CreateExternallySynchronized)
	require.Equal(t, descriptors.CreateOptions{
		Flags:          descriptors.CreateExternallySynchronized,
		MaxSetsPerPool: descriptors.DefaultMaxSetsPerPool,
		Name:           "frame 0",
	}, options)
}

func TestParseRejects(t *testing.T) {
	testCases := []struct {
		name     string
		document string
	}{
		{name: "UnknownKey", document: "[frames]\nbuffers = 2\n"},
		{name: "NegativeOverlap", document: "[frames]\noverlap = -1\n"},
		{name: "BadDuration", document: "[frames]\nfence_timeout = \"soon\"\n"},
		{name: "NegativeTimeout", document: "[frames]\nfence_timeout = \"-1s\"\n"},
		{name: "UnknownDescriptorType", document: "[[descriptors.ratios]]\ntype = \"texture\"\nratio = 1.0\n"},
		{name: "ZeroRatio", document: "[[descriptors.ratios]]\ntype = \"sampler\"\nratio = 0.0\n"},
		{name: "Malformed", document: "[frames\n"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := Parse([]byte(testCase.document))
			require.Error(t, err)
		})
	}
}

func TestValidateClassifiesErrors(t *testing.T) {
	config := Default()
	config.Descriptors.MaxSetsPerPool = 0

	err := config.Validate()
	require.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifetime.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o600))

	config, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", config.Log.Level)
	require.Equal(t, Default().Frames, config.Frames)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestParseDescriptorType(t *testing.T) {
	descriptorType, err := ParseDescriptorType("STORAGE_BUFFER_DYNAMIC")
	require.NoError(t, err)
	require.Equal(t, core1_0.DescriptorTypeStorageBufferDynamic, descriptorType)

	_, err = ParseDescriptorType("")
	require.True(t, errors.Is(err, ErrInvalidConfig))
}
