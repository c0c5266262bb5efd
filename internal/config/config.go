package config

import (
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSrc string

// Limits mirrored from schema.cue for help text and flag docs.
const (
	MaxDelayMS = 1000
)

// Config is a validated set of run parameters.
type Config struct {
	Oxygen   int `json:"oxygen" yaml:"oxygen"`
	Hydrogen int `json:"hydrogen" yaml:"hydrogen"`
	WaitMS   int `json:"wait_ms" yaml:"wait_ms"`
	BondMS   int `json:"bond_ms" yaml:"bond_ms"`
}

// argOrder is the positional order of the command line.
var argOrder = []Field{FieldOxygen, FieldHydrogen, FieldWait, FieldBond}

// Parse converts the four positional arguments and validates them.
// The first offending argument, in positional order, is reported.
func Parse(args []string) (Config, error) {
	if len(args) != len(argOrder) {
		return Config{}, &ConfigError{
			Field:  FieldArgs,
			Value:  fmt.Sprint(len(args)),
			Reason: fmt.Sprintf("expected %d arguments (NO NH TI TB), got %d", len(argOrder), len(args)),
		}
	}

	values := make([]int, len(args))
	for i, raw := range args {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, &ConfigError{Field: argOrder[i], Value: raw, Reason: "not an integer"}
		}
		values[i] = n
	}

	cfg := Config{
		Oxygen:   values[0],
		Hydrogen: values[1],
		WaitMS:   values[2],
		BondMS:   values[3],
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field against the CUE schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	fields := []struct {
		field Field
		value int
	}{
		{FieldOxygen, c.Oxygen},
		{FieldHydrogen, c.Hydrogen},
		{FieldWait, c.WaitMS},
		{FieldBond, c.BondMS},
	}
	for _, f := range fields {
		constraint := def.LookupPath(cue.ParsePath(string(f.field)))
		if !constraint.Exists() {
			return fmt.Errorf("config schema has no field %q", f.field)
		}
		v := constraint.Unify(ctx.Encode(f.value))
		if err := v.Validate(cue.Concrete(true)); err != nil {
			return &ConfigError{
				Field:  f.field,
				Value:  strconv.Itoa(f.value),
				Reason: reasonFor(f.field),
			}
		}
	}
	return nil
}

func reasonFor(f Field) string {
	switch f {
	case FieldOxygen, FieldHydrogen:
		return "must be greater than 0"
	default:
		return fmt.Sprintf("must be between 0 and %d", MaxDelayMS)
	}
}

// WaitTime is the upper bound of an atom's pre-queue delay.
func (c Config) WaitTime() time.Duration {
	return time.Duration(c.WaitMS) * time.Millisecond
}

// BondTime is the upper bound of the oxygen's bond-formation delay.
func (c Config) BondTime() time.Duration {
	return time.Duration(c.BondMS) * time.Millisecond
}

// Args renders the configuration back into positional form.
func (c Config) Args() []string {
	return []string{
		strconv.Itoa(c.Oxygen),
		strconv.Itoa(c.Hydrogen),
		strconv.Itoa(c.WaitMS),
		strconv.Itoa(c.BondMS),
	}
}
