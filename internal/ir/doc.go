// Package ir defines the event records shared by every H2O component.
//
// An Event is one line of the run log: a gap-free sequence number, the
// atom that produced it and what happened. The same record is written to
// the text output, persisted by the store and checked by the harness, so
// its line encoding (Event.String / ParseLine) is the wire format of the
// whole system:
//
//	1: O 1: started
//	2: H 1: started
//	3: O 1: going to queue
//	...
//	9: O 1: creating molecule 1
//	12: O 1: molecule 1 created
//
// Canonical JSON (MarshalCanonical) and domain-separated digests
// (SummaryDigest) give run summaries a stable identity for golden tests.
package ir
