package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/avatarskin/gpu"
)

// TexturePrecision is the precision a skinning stage stores its texels with. Values are ordered from the
// most compatible to the most compact.
type TexturePrecision int

const (
	PrecisionFloat TexturePrecision = iota
	PrecisionHalf
	PrecisionUnorm16
	PrecisionSnorm10
	PrecisionByte
	PrecisionNibble
)

var precisionNames = map[TexturePrecision]string{
	PrecisionFloat:   "Float",
	PrecisionHalf:    "Half",
	PrecisionUnorm16: "Unorm16",
	PrecisionSnorm10: "Snorm10",
	PrecisionByte:    "Byte",
	PrecisionNibble:  "Nibble",
}

var precisionFormats = map[TexturePrecision]gpu.Format{
	PrecisionFloat:   gpu.FormatRGBA32Float,
	PrecisionHalf:    gpu.FormatRGBA16Float,
	PrecisionUnorm16: gpu.FormatRGBA16Unorm,
	// 10-bit signed data is packed into an 8-bit unorm texture
	PrecisionSnorm10: gpu.FormatRGBA8Unorm,
	PrecisionByte:    gpu.FormatRGBA8Unorm,
	PrecisionNibble:  gpu.FormatRGBA4Unorm,
}

func (p TexturePrecision) IsValid() bool {
	_, ok := precisionNames[p]
	return ok
}

func (p TexturePrecision) String() string {
	name, ok := precisionNames[p]
	if !ok {
		return "Unknown"
	}
	return name
}

// Format returns the texture format used to store this precision
func (p TexturePrecision) Format() gpu.Format {
	return precisionFormats[p]
}

func (p TexturePrecision) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, errors.Newf("unknown texture precision %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *TexturePrecision) UnmarshalText(text []byte) error {
	for precision, name := range precisionNames {
		if strings.EqualFold(name, string(text)) {
			*p = precision
			return nil
		}
	}
	return errors.Newf("unknown texture precision %q", string(text))
}

// SkinningQuality is the number of bone influences used per vertex
type SkinningQuality int

const (
	QualityBone1 SkinningQuality = 1
	QualityBone2 SkinningQuality = 2
	QualityBone4 SkinningQuality = 4
)

func (q SkinningQuality) String() string {
	switch q {
	case QualityBone1:
		return "Bone1"
	case QualityBone2:
		return "Bone2"
	case QualityBone4:
		return "Bone4"
	}
	return "Invalid"
}

// Clamp returns the highest valid quality that does not exceed q, or Bone1 if q is below every valid quality
func (q SkinningQuality) Clamp() SkinningQuality {
	switch {
	case q >= QualityBone4:
		return QualityBone4
	case q >= QualityBone2:
		return QualityBone2
	default:
		return QualityBone1
	}
}

// MaxJointsToSkin returns the number of joints that influence each vertex at this quality
func (q SkinningQuality) MaxJointsToSkin() int {
	return int(q.Clamp())
}

func (q SkinningQuality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

func (q *SkinningQuality) UnmarshalText(text []byte) error {
	for _, quality := range []SkinningQuality{QualityBone1, QualityBone2, QualityBone4} {
		if strings.EqualFold(quality.String(), string(text)) {
			*q = quality
			return nil
		}
	}
	return errors.Newf("unknown skinning quality %q", string(text))
}
