// Package canonical produces deterministic JSON serializations and
// domain-separated hashes of JSON-shaped values.
//
// The engine uses it to snapshot an integrity hash of the frozen facts at
// construction and to detect mutation during a run. The harness uses it to
// serialize trace snapshots for golden-file comparison.
//
// Canonical form: object keys sorted lexicographically, strings NFC
// normalized with no HTML escaping, integral floats printed as integers.
// Arbitrary Go values are first normalized through an encoding/json round
// trip, so anything json.Marshal accepts can be canonicalized.
package canonical
