// Package harness checks H2O runs against the properties every correct
// run must have, whatever the interleaving.
//
// Verify takes the events of one run and the pool size and reports every
// violated property:
//
//   - seq: sequence numbers are contiguous from 1
//   - lifecycle: each atom logs started, going to queue, then either
//     creating/created for one molecule or a single "not enough" line
//   - molecule: ids run 1..min(O, H/2); each has one oxygen and two
//     hydrogens; no atom claims "created" before its oxygen began creating
//   - rounds: molecule rounds never overlap; the first line of molecule
//     m+1 comes after the last line of molecule m
//   - drain: exactly O+H-3*max "not enough" lines, all after the last
//     molecule line
//
// # Scenario Format
//
// Scenarios are YAML files run several times each:
//
//	name: surplus_oxygen
//	description: "Four oxygens can never bond"
//	oxygen: 5
//	hydrogen: 2
//	wait_ms: 0
//	bond_ms: 0
//	runs: 25
//	expect:
//	  molecules: 1
//	  unpaired_oxygen: 4
//	  unpaired_hydrogen: 0
//
// # Golden Files
//
// A run summary does not depend on interleaving, so RunWithGolden compares
// its canonical JSON against testdata/golden/<name>.golden.
package harness
