// Package config parses and validates the run parameters.
//
// A run takes four non-negative integers, in this order:
//
//	NO  number of oxygen atoms              (> 0)
//	NH  number of hydrogen atoms            (> 0)
//	TI  max pre-queue delay in ms           (0..1000)
//	TB  max bond-formation delay in ms      (0..1000)
//
// Ranges live in the embedded CUE schema (schema.cue). Every violation is
// reported as a *ConfigError naming the offending argument, and no actor
// is ever started for an invalid configuration.
//
// Settings carries the ambient knobs of the CLI (output file, database,
// verbosity) that are layered from flags, H2O_* environment variables and
// an optional YAML file.
package config
