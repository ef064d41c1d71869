// Package harness provides a conformance testing kit for ruleflow rule
// sets.
//
// Rule predicates and actions are Go functions, so scenarios cannot carry
// them inline. Instead, a test registers its rules by name in a Library and
// scenario YAML files reference those names in evaluation order. A scenario
// supplies the facts, the initial result, per-run options, and
// expectations over the final result, the iteration count, and the error.
//
// Run drives the engine purely through its public API and records a trace
// of executed rules via the AfterRule hook. RunWithGolden serializes that
// trace as canonical JSON and compares it against a golden file, so a rule
// set's firing order is pinned byte-for-byte:
//
//	go test ./harness -update
//
// regenerates the golden files.
package harness
