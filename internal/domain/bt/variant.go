package bt

import (
	"fmt"
	"strings"
)

// Outcome selects how a game result is observed.
type Outcome int

const (
	// Binary observes whether the away team avoided defeat.
	Binary Outcome = iota
	// Ordinal observes the 7-level run margin bucket.
	Ordinal
)

// Scale selects how team ability enters the linear predictor.
type Scale int

const (
	// ScaleLog uses log ability with a Normal(0,1) prior.
	ScaleLog Scale = iota
	// ScaleRaw uses positive ability with a Normal(0,1) prior truncated at zero.
	ScaleRaw
)

func (s Scale) String() string {
	if s == ScaleRaw {
		return "raw"
	}
	return "log"
}

// ParseScale maps "log" or "raw" onto a Scale.
func ParseScale(name string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "log":
		return ScaleLog, nil
	case "raw":
		return ScaleRaw, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownScale, name)
	}
}

// Variant is one member of the paired-comparison model family.
type Variant struct {
	Outcome       Outcome
	HomeIntercept bool
	Scale         Scale
}

// Named variants. Binary models default to log ability, ordinal to raw.
var (
	VariantBinary      = Variant{Outcome: Binary, Scale: ScaleLog}
	VariantBinaryHome  = Variant{Outcome: Binary, HomeIntercept: true, Scale: ScaleLog}
	VariantOrdinal     = Variant{Outcome: Ordinal, Scale: ScaleRaw}
	VariantOrdinalHome = Variant{Outcome: Ordinal, HomeIntercept: true, Scale: ScaleRaw}
)

// ParseVariant resolves one of binary, binary_home, ordinal, ordinal_home.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "binary":
		return VariantBinary, nil
	case "binary_home":
		return VariantBinaryHome, nil
	case "ordinal":
		return VariantOrdinal, nil
	case "ordinal_home":
		return VariantOrdinalHome, nil
	default:
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
}

// String returns the variant name used in output file names. A scale that
// differs from the outcome's default is appended as a suffix.
func (v Variant) String() string {
	name := "binary"
	def := ScaleLog
	if v.Outcome == Ordinal {
		name = "ordinal"
		def = ScaleRaw
	}
	if v.HomeIntercept {
		name += "_home"
	}
	if v.Scale != def {
		name += "_" + v.Scale.String()
	}
	return name
}

// Cutpoints returns the number of ordinal thresholds the variant carries.
func (v Variant) Cutpoints() int {
	if v.Outcome == Ordinal {
		return ordinalLevels - 1
	}
	return 0
}
