package crash

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the tunable math of a crash table, loaded from YAML:
//
//	house_edge: 0.04
//	growth_k: 0.00006
type Profile struct {
	HouseEdge float64 `yaml:"house_edge" json:"house_edge"`
	GrowthK   float64 `yaml:"growth_k" json:"growth_k"`
}

// DefaultProfile returns the built-in math.
func DefaultProfile() Profile {
	return Profile{HouseEdge: DefaultHouseEdge, GrowthK: DefaultGrowthK}
}

// LoadProfile reads a profile file. Fields left out keep their defaults and
// a missing file yields DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("read profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the profile's parameters.
func (p Profile) Validate() error {
	if err := ValidateHouseEdge(p.HouseEdge); err != nil {
		return err
	}
	if !(p.GrowthK > 0) {
		return fmt.Errorf("%w: growth_k %v must be positive", ErrInvalidConfig, p.GrowthK)
	}
	return nil
}

// Options converts the profile to engine options.
func (p Profile) Options() []Option {
	return []Option{WithHouseEdge(p.HouseEdge), WithGrowth(p.GrowthK)}
}
