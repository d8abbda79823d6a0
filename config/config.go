package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/vkngwrapper/avatarskin/atlas"
	"github.com/vkngwrapper/avatarskin/gpu"
	"github.com/vkngwrapper/avatarskin/ringpool"
)

// LODCount is the number of levels of detail an avatar entity can have
const LODCount = 5

// PrecisionConfig chooses the texel precision of each skinning stage
type PrecisionConfig struct {
	// Morph is the precision of the source morph target textures
	Morph TexturePrecision `toml:"morph"`
	// Combined is the precision of the combined morph target atlas
	Combined TexturePrecision `toml:"combined"`
	// Output is the precision of the skinner output atlas
	Output TexturePrecision `toml:"output"`
}

// PoolConfig sizes the ring buffer pool
type PoolConfig struct {
	NumBuffers int `toml:"num_buffers"`
	BufferSize int `toml:"buffer_size"`
	MaxJoints  int `toml:"max_joints"`
	MaxWeights int `toml:"max_weights"`
}

// AtlasConfig sizes the combined morph target and skinner output atlases. Their formats come from the
// precision settings.
type AtlasConfig struct {
	Width        int `toml:"width"`
	Height       int `toml:"height"`
	InitialDepth int `toml:"initial_depth"`
	// MaxDepth limits atlas growth. 0 means unlimited.
	MaxDepth int `toml:"max_depth"`
}

// Configuration holds every GPU skinning setting
type Configuration struct {
	Precision PrecisionConfig `toml:"precision"`

	// SkinnerUnormScale is used to compute the scale and bias applied to positions stored in unorm formats
	SkinnerUnormScale float32 `toml:"skinner_unorm_scale"`

	// SupportApplicationSpaceWarp keeps an extra output frame so motion vectors can be generated
	SupportApplicationSpaceWarp bool `toml:"support_application_space_warp"`
	// MotionSmoothing interpolates between animation frames at the cost of a frame of latency
	MotionSmoothing bool `toml:"motion_smoothing"`

	// QualityPerLOD is the number of bone influences per vertex used at each level of detail
	QualityPerLOD []SkinningQuality `toml:"quality_per_lod"`

	Pool  PoolConfig  `toml:"pool"`
	Atlas AtlasConfig `toml:"atlas"`
}

// Default returns the configuration used when no file is provided
func Default() Configuration {
	quality := make([]SkinningQuality, LODCount)
	for i := range quality {
		quality[i] = QualityBone4
	}

	return Configuration{
		Precision: PrecisionConfig{
			Morph:    PrecisionFloat,
			Combined: PrecisionFloat,
			Output:   PrecisionFloat,
		},
		SkinnerUnormScale: 4,
		QualityPerLOD:     quality,
		Pool: PoolConfig{
			NumBuffers: ringpool.DefaultNumBuffers,
			BufferSize: ringpool.DefaultBufferSize,
			MaxJoints:  ringpool.DefaultMaxJoints,
			MaxWeights: ringpool.DefaultMaxWeights,
		},
		Atlas: AtlasConfig{
			Width:        2048,
			Height:       2048,
			InitialDepth: 1,
		},
	}
}

// Parse reads a TOML configuration. Settings missing from the document keep their default values.
// Unknown keys are an error.
func Parse(data []byte) (Configuration, error) {
	cfg := Default()

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(&cfg)
	if err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, column := decodeErr.Position()
			return Configuration{}, errors.Wrapf(err, "invalid configuration at line %d, column %d", row, column)
		}
		return Configuration{}, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

// Load reads a TOML configuration file
func Load(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, errors.Wrapf(err, "failed to read configuration %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Configuration{}, errors.Wrapf(err, "failed to load configuration %s", path)
	}
	return cfg, nil
}

// Marshal writes the configuration as TOML
func (c Configuration) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// MaxOutputFrames returns the number of output slices each skinned mesh needs: one, plus one for
// application space warp, plus one for motion smoothing
func (c Configuration) MaxOutputFrames() int {
	frames := 1
	if c.SupportApplicationSpaceWarp {
		frames++
	}
	if c.MotionSmoothing {
		frames++
	}
	return frames
}

// HasMotionVectors returns true when skinned meshes must keep the previous render frame's output around
// for motion vector generation
func (c Configuration) HasMotionVectors() bool {
	return c.SupportApplicationSpaceWarp
}

// QualityForLOD returns the skinning quality configured for a level of detail
func (c Configuration) QualityForLOD(lod int) SkinningQuality {
	if lod < 0 || lod >= len(c.QualityPerLOD) {
		panic(fmt.Sprintf("config: no skinning quality configured for LOD %d", lod))
	}
	return c.QualityPerLOD[lod]
}

// Enforce replaces precision and quality settings that can never work with the closest ones that do and
// returns a description of each change. Combined and output precisions cannot be Byte, Nibble or Snorm10;
// morph precision cannot be Byte, Nibble or Unorm16.
func (c *Configuration) Enforce() []string {
	var changes []string

	revert := func(name string, precision *TexturePrecision, to TexturePrecision) {
		changes = append(changes, fmt.Sprintf("unsupported %s precision %s, reverted to %s", name, *precision, to))
		*precision = to
	}

	switch c.Precision.Morph {
	case PrecisionByte, PrecisionNibble, PrecisionUnorm16:
		revert("morph", &c.Precision.Morph, PrecisionSnorm10)
	}

	switch c.Precision.Combined {
	case PrecisionByte, PrecisionNibble, PrecisionSnorm10:
		revert("combined", &c.Precision.Combined, PrecisionHalf)
	}

	switch c.Precision.Output {
	case PrecisionByte, PrecisionNibble, PrecisionSnorm10:
		revert("output", &c.Precision.Output, PrecisionHalf)
	}

	for lod, quality := range c.QualityPerLOD {
		clamped := quality.Clamp()
		if clamped != quality {
			changes = append(changes, fmt.Sprintf("skinning quality %d for LOD %d clamped to %s", int(quality), lod, clamped))
			c.QualityPerLOD[lod] = clamped
		}
	}

	if len(c.QualityPerLOD) != LODCount {
		fill := QualityBone4
		if len(c.QualityPerLOD) > 0 && len(c.QualityPerLOD) <= LODCount {
			fill = c.QualityPerLOD[len(c.QualityPerLOD)-1]
		}

		resized := make([]SkinningQuality, LODCount)
		copied := copy(resized, c.QualityPerLOD)
		for i := copied; i < LODCount; i++ {
			resized[i] = fill
		}

		changes = append(changes, fmt.Sprintf("quality per LOD resized from %d to %d entries", len(c.QualityPerLOD), LODCount))
		c.QualityPerLOD = resized
	}

	return changes
}

// ResolveSupported steps each precision down towards Float until the device supports its format, and
// returns a description of each fallback. Float is used even when unsupported, since nothing is simpler.
func (c *Configuration) ResolveSupported(supported func(format gpu.Format) bool) []string {
	var changes []string

	resolve := func(name string, precision *TexturePrecision) {
		configured := *precision
		for *precision > PrecisionFloat && !supported(precision.Format()) {
			*precision--
		}

		if *precision != configured {
			changes = append(changes, fmt.Sprintf("%s precision %s is unsupported, falling back to %s", name, configured, *precision))
		}
	}

	resolve("morph", &c.Precision.Morph)
	resolve("combined", &c.Precision.Combined)
	resolve("output", &c.Precision.Output)
	return changes
}

// Validate returns an error for settings that cannot produce working skinning resources
func (c Configuration) Validate() error {
	if c.Pool.NumBuffers < 2 {
		return errors.Newf("pool.num_buffers must be at least 2, but is %d", c.Pool.NumBuffers)
	}
	if c.Pool.BufferSize <= 0 || c.Pool.MaxJoints <= 0 || c.Pool.MaxWeights <= 0 {
		return errors.Newf("pool sizes must be positive: buffer_size=%d max_joints=%d max_weights=%d",
			c.Pool.BufferSize, c.Pool.MaxJoints, c.Pool.MaxWeights)
	}
	if c.Pool.MaxJoints > 254 {
		return errors.Newf("pool.max_joints is %d but joint indices are 8-bit, so at most 254 are addressable", c.Pool.MaxJoints)
	}

	if c.Atlas.Width <= 0 || c.Atlas.Width > atlas.MaxTextureDimension ||
		c.Atlas.Height <= 0 || c.Atlas.Height > atlas.MaxTextureDimension {
		return errors.Newf("atlas dimensions %dx%d must be in (0, %d]", c.Atlas.Width, c.Atlas.Height, atlas.MaxTextureDimension)
	}
	if c.Atlas.InitialDepth < 0 || c.Atlas.MaxDepth < 0 {
		return errors.New("atlas depths cannot be negative")
	}
	if c.Atlas.MaxDepth > 0 && c.Atlas.InitialDepth > c.Atlas.MaxDepth {
		return errors.Newf("atlas.initial_depth %d is larger than atlas.max_depth %d", c.Atlas.InitialDepth, c.Atlas.MaxDepth)
	}

	if c.SkinnerUnormScale <= 0 {
		return errors.Newf("skinner_unorm_scale must be positive, but is %g", c.SkinnerUnormScale)
	}

	for _, precision := range []TexturePrecision{c.Precision.Morph, c.Precision.Combined, c.Precision.Output} {
		if !precision.IsValid() {
			return errors.Newf("unknown texture precision %d", int(precision))
		}
	}

	return nil
}
