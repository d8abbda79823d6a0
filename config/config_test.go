package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/avatarskin/config"
	"github.com/vkngwrapper/avatarskin/gpu"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()

	require.NoError(t, cfg.Validate())
	require.Empty(t, cfg.Enforce())
	require.Equal(t, 1, cfg.MaxOutputFrames())
	require.False(t, cfg.HasMotionVectors())
	require.Equal(t, config.QualityBone4, cfg.QualityForLOD(0))
	require.Equal(t, float32(4), cfg.SkinnerUnormScale)
	require.Equal(t, 36, cfg.Pool.BufferSize)
}

func TestMaxOutputFrames(t *testing.T) {
	testCases := map[string]struct {
		asw       bool
		smoothing bool
		frames    int
	}{
		"Neither":   {frames: 1},
		"Smoothing": {smoothing: true, frames: 2},
		"SpaceWarp": {asw: true, frames: 2},
		"Both":      {asw: true, smoothing: true, frames: 3},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.SupportApplicationSpaceWarp = testCase.asw
			cfg.MotionSmoothing = testCase.smoothing

			require.Equal(t, testCase.frames, cfg.MaxOutputFrames())
			require.Equal(t, testCase.asw, cfg.HasMotionVectors())
		})
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(`
motion_smoothing = true
support_application_space_warp = true
skinner_unorm_scale = 2.5

[precision]
morph = "snorm10"
output = "Half"

[pool]
num_buffers = 3

[atlas]
width = 1024
max_depth = 8
`))
	require.NoError(t, err)

	require.Equal(t, 3, cfg.MaxOutputFrames())
	require.Equal(t, float32(2.5), cfg.SkinnerUnormScale)
	require.Equal(t, config.PrecisionSnorm10, cfg.Precision.Morph)
	require.Equal(t, config.PrecisionFloat, cfg.Precision.Combined)
	require.Equal(t, config.PrecisionHalf, cfg.Precision.Output)
	require.Equal(t, 3, cfg.Pool.NumBuffers)
	require.Equal(t, 36, cfg.Pool.BufferSize)
	require.Equal(t, 1024, cfg.Atlas.Width)
	require.Equal(t, 2048, cfg.Atlas.Height)
	require.Equal(t, 8, cfg.Atlas.MaxDepth)
	require.NoError(t, cfg.Validate())
}

func TestParseRejectsBadDocuments(t *testing.T) {
	_, err := config.Parse([]byte(`not_a_setting = 1`))
	require.Error(t, err)

	_, err = config.Parse([]byte("[precision]\nmorph = \"Double\""))
	require.Error(t, err)

	_, err = config.Parse([]byte(`motion_smoothing = `))
	require.Error(t, err)
}

func TestLoadAndMarshal(t *testing.T) {
	cfg := config.Default()
	cfg.MotionSmoothing = true
	cfg.Precision.Combined = config.PrecisionHalf
	cfg.QualityPerLOD[4] = config.QualityBone1

	data, err := cfg.Marshal()
	require.NoError(t, err)
	require.Contains(t, string(data), "Half")

	path := filepath.Join(t.TempDir(), "skinning.toml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestEnforce(t *testing.T) {
	testCases := map[string]struct {
		morph, combined, output                         config.TexturePrecision
		expectedMorph, expectedCombined, expectedOutput config.TexturePrecision
		changes                                         int
	}{
		"AllFloat": {
			expectedMorph: config.PrecisionFloat, expectedCombined: config.PrecisionFloat, expectedOutput: config.PrecisionFloat,
		},
		"MorphUnorm16": {
			morph:         config.PrecisionUnorm16,
			expectedMorph: config.PrecisionSnorm10, expectedCombined: config.PrecisionFloat, expectedOutput: config.PrecisionFloat,
			changes: 1,
		},
		"MorphSnorm10IsAllowed": {
			morph:         config.PrecisionSnorm10,
			expectedMorph: config.PrecisionSnorm10, expectedCombined: config.PrecisionFloat, expectedOutput: config.PrecisionFloat,
		},
		"CombinedByteOutputSnorm10": {
			combined: config.PrecisionByte, output: config.PrecisionSnorm10,
			expectedMorph: config.PrecisionFloat, expectedCombined: config.PrecisionHalf, expectedOutput: config.PrecisionHalf,
			changes: 2,
		},
		"OutputUnorm16IsAllowed": {
			output:        config.PrecisionUnorm16,
			expectedMorph: config.PrecisionFloat, expectedCombined: config.PrecisionFloat, expectedOutput: config.PrecisionUnorm16,
		},
		"EverythingNibble": {
			morph: config.PrecisionNibble, combined: config.PrecisionNibble, output: config.PrecisionNibble,
			expectedMorph: config.PrecisionSnorm10, expectedCombined: config.PrecisionHalf, expectedOutput: config.PrecisionHalf,
			changes: 3,
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Precision.Morph = testCase.morph
			cfg.Precision.Combined = testCase.combined
			cfg.Precision.Output = testCase.output

			changes := cfg.Enforce()
			require.Len(t, changes, testCase.changes)
			require.Equal(t, testCase.expectedMorph, cfg.Precision.Morph)
			require.Equal(t, testCase.expectedCombined, cfg.Precision.Combined)
			require.Equal(t, testCase.expectedOutput, cfg.Precision.Output)
		})
	}
}

func TestEnforceQualityPerLOD(t *testing.T) {
	cfg := config.Default()
	cfg.QualityPerLOD = []config.SkinningQuality{config.QualityBone1, 3}

	changes := cfg.Enforce()
	require.Len(t, changes, 2)
	require.Equal(t, []config.SkinningQuality{
		config.QualityBone1,
		config.QualityBone2,
		config.QualityBone2,
		config.QualityBone2,
		config.QualityBone2,
	}, cfg.QualityPerLOD)

	cfg.QualityPerLOD = nil
	cfg.Enforce()
	require.Len(t, cfg.QualityPerLOD, config.LODCount)
	require.Equal(t, config.QualityBone4, cfg.QualityForLOD(config.LODCount-1))
	require.Panics(t, func() { cfg.QualityForLOD(config.LODCount) })
}

func TestResolveSupported(t *testing.T) {
	cfg := config.Default()
	cfg.Precision.Morph = config.PrecisionSnorm10
	cfg.Precision.Combined = config.PrecisionHalf
	cfg.Precision.Output = config.PrecisionUnorm16

	// A device without 16-bit formats
	changes := cfg.ResolveSupported(func(format gpu.Format) bool {
		return format != gpu.FormatRGBA16Float && format != gpu.FormatRGBA16Unorm
	})

	require.Len(t, changes, 2)
	require.Equal(t, config.PrecisionSnorm10, cfg.Precision.Morph)
	require.Equal(t, config.PrecisionFloat, cfg.Precision.Combined)
	require.Equal(t, config.PrecisionFloat, cfg.Precision.Output)

	// Float is kept even if the device claims not to support it
	cfg.Precision.Output = config.PrecisionHalf
	cfg.ResolveSupported(func(gpu.Format) bool { return false })
	require.Equal(t, config.PrecisionFloat, cfg.Precision.Output)
}

func TestSkinningQuality(t *testing.T) {
	require.Equal(t, 1, config.QualityBone1.MaxJointsToSkin())
	require.Equal(t, 2, config.QualityBone2.MaxJointsToSkin())
	require.Equal(t, 4, config.QualityBone4.MaxJointsToSkin())
	require.Equal(t, 4, config.SkinningQuality(9).MaxJointsToSkin())
	require.Equal(t, "Invalid", config.SkinningQuality(0).String())
}

func TestValidate(t *testing.T) {
	testCases := map[string]func(cfg *config.Configuration){
		"OneBuffer":        func(cfg *config.Configuration) { cfg.Pool.NumBuffers = 1 },
		"ZeroBufferSize":   func(cfg *config.Configuration) { cfg.Pool.BufferSize = 0 },
		"TooManyJoints":    func(cfg *config.Configuration) { cfg.Pool.MaxJoints = 255 },
		"ZeroWidth":        func(cfg *config.Configuration) { cfg.Atlas.Width = 0 },
		"HugeHeight":       func(cfg *config.Configuration) { cfg.Atlas.Height = 20000 },
		"DepthOverMax":     func(cfg *config.Configuration) { cfg.Atlas.InitialDepth, cfg.Atlas.MaxDepth = 4, 2 },
		"NegativeScale":    func(cfg *config.Configuration) { cfg.SkinnerUnormScale = -1 },
		"UnknownPrecision": func(cfg *config.Configuration) { cfg.Precision.Output = 42 },
	}

	for name, mutate := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
