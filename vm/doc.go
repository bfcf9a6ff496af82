// Package vm implements the telescope virtual machine.
//
// This package contains:
//   - Tagged runtime value representation
//   - Program representation: instruction stream and constant pools
//   - Closure-based stack evaluator with the fixpoint protocol
//   - Program image serialization
package vm
