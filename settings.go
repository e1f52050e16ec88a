package impulse2d

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gekko3d/impulse2d/collision"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Settings holds the solver tolerances and world defaults. Lengths are in
// meters, angles in radians, times in seconds.
type Settings struct {
	// Constraint tolerance used by the contact solver. Shape skins and clip
	// tolerances in package collision stay at collision.LinearSlop whatever
	// this is set to; raising it only lets contacts settle deeper.
	LinearSlop float64 `toml:"linear_slop" yaml:"linear_slop"`
	// Fraction of overlap resolved per position iteration.
	Baumgarte    float64 `toml:"baumgarte" yaml:"baumgarte"`
	TOIBaumgarte float64 `toml:"toi_baumgarte" yaml:"toi_baumgarte"`
	// Largest position correction applied to one contact point per iteration.
	MaxLinearCorrection float64 `toml:"max_linear_correction" yaml:"max_linear_correction"`
	// Approach speed above which collisions bounce.
	VelocityThreshold float64 `toml:"velocity_threshold" yaml:"velocity_threshold"`
	// Bound on k11^2/det(K) for the two-point block solver.
	MaxConditionNumber float64 `toml:"max_condition_number" yaml:"max_condition_number"`
	BlockSolve         bool    `toml:"block_solve" yaml:"block_solve"`

	MaxTranslation float64 `toml:"max_translation" yaml:"max_translation"`
	MaxRotation    float64 `toml:"max_rotation" yaml:"max_rotation"`

	LinearSleepTolerance  float64 `toml:"linear_sleep_tolerance" yaml:"linear_sleep_tolerance"`
	AngularSleepTolerance float64 `toml:"angular_sleep_tolerance" yaml:"angular_sleep_tolerance"`
	TimeToSleep           float64 `toml:"time_to_sleep" yaml:"time_to_sleep"`

	// Margin added around fixture bounds in the broad-phase.
	AABBExtension      float64 `toml:"aabb_extension" yaml:"aabb_extension"`
	BroadPhaseCellSize float64 `toml:"broad_phase_cell_size" yaml:"broad_phase_cell_size"`

	VelocityIterations int  `toml:"velocity_iterations" yaml:"velocity_iterations"`
	PositionIterations int  `toml:"position_iterations" yaml:"position_iterations"`
	WarmStarting       bool `toml:"warm_starting" yaml:"warm_starting"`

	// Initial size of the contact solver buffers.
	ConstraintCapacity int `toml:"constraint_capacity" yaml:"constraint_capacity"`
}

func DefaultSettings() Settings {
	return Settings{
		LinearSlop:            collision.LinearSlop,
		Baumgarte:             0.2,
		TOIBaumgarte:          0.75,
		MaxLinearCorrection:   0.2,
		VelocityThreshold:     1.0,
		MaxConditionNumber:    100.0,
		BlockSolve:            true,
		MaxTranslation:        2.0,
		MaxRotation:           0.5 * math.Pi,
		LinearSleepTolerance:  0.01,
		AngularSleepTolerance: 2.0 / 180.0 * math.Pi,
		TimeToSleep:           0.5,
		AABBExtension:         0.1,
		BroadPhaseCellSize:    2.0,
		VelocityIterations:    8,
		PositionIterations:    3,
		WarmStarting:          true,
		ConstraintCapacity:    256,
	}
}

var ErrInvalidSettings = errors.New("invalid settings")

// Validate rejects values the solver cannot run with.
func (s Settings) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"linear_slop", s.LinearSlop},
		{"max_linear_correction", s.MaxLinearCorrection},
		{"max_condition_number", s.MaxConditionNumber},
		{"max_translation", s.MaxTranslation},
		{"max_rotation", s.MaxRotation},
		{"broad_phase_cell_size", s.BroadPhaseCellSize},
	}
	for _, p := range positive {
		if !(p.value > 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidSettings, p.name, p.value)
		}
	}
	if s.Baumgarte < 0 || s.Baumgarte > 1 {
		return fmt.Errorf("%w: baumgarte must be in [0, 1], got %v", ErrInvalidSettings, s.Baumgarte)
	}
	if s.TOIBaumgarte < 0 || s.TOIBaumgarte > 1 {
		return fmt.Errorf("%w: toi_baumgarte must be in [0, 1], got %v", ErrInvalidSettings, s.TOIBaumgarte)
	}
	if s.VelocityThreshold < 0 || s.AABBExtension < 0 || s.TimeToSleep < 0 {
		return fmt.Errorf("%w: thresholds must not be negative", ErrInvalidSettings)
	}
	if s.VelocityIterations < 1 || s.PositionIterations < 0 {
		return fmt.Errorf("%w: need at least one velocity iteration, got %d/%d",
			ErrInvalidSettings, s.VelocityIterations, s.PositionIterations)
	}
	if s.ConstraintCapacity < 1 {
		return fmt.Errorf("%w: constraint_capacity must be at least 1, got %d", ErrInvalidSettings, s.ConstraintCapacity)
	}
	return nil
}

// LoadSettings overlays the file at path on DefaultSettings. The format is
// chosen by extension: .toml, .yaml or .yml.
func LoadSettings(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	defer f.Close()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	s, err := ReadSettings(f, format)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings %s: %w", path, err)
	}
	return s, nil
}

// ReadSettings is LoadSettings for an already open source. format is "toml",
// "yaml" or "yml".
func ReadSettings(r io.Reader, format string) (Settings, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Settings{}, err
	}

	s := DefaultSettings()
	switch format {
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return Settings{}, fmt.Errorf("decode toml: %w", err)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return Settings{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return Settings{}, fmt.Errorf("unsupported settings format %q", format)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
