package ais

import (
	"fmt"
	"strings"

	"infodyn/domain/core"
)

// Variant selects the mutual information estimator behind a Calculator
type Variant int

const (
	// VariantGaussian is the linear-Gaussian estimator with a chi-square null
	VariantGaussian Variant = iota
	// VariantKraskov is the KSG nearest-neighbour estimator
	VariantKraskov
)

func (v Variant) String() string {
	switch v {
	case VariantGaussian:
		return "gaussian"
	case VariantKraskov:
		return "kraskov"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// ParseVariant maps a configuration name to a Variant
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gaussian", "":
		return VariantGaussian, nil
	case "kraskov", "ksg":
		return VariantKraskov, nil
	}
	return 0, fmt.Errorf("%w: unknown estimator %q (want gaussian or kraskov)", core.ErrInvalidOption, s)
}

// MarshalText encodes the variant by name
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText decodes a variant name, so Variant can sit in JSON and YAML
func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
