// Package validator turns untrusted preference submissions into normalized,
// invariant-checked preferences.
//
// Decode accepts the loose shapes a capture UI produces (an ordered ranking list
// or an explicit rank map) and Validate checks the result against the clause
// group: known variant ids, no duplicates, dense 1..N ranks and an exact
// ranking/rejection partition of the group's variants. Validation reports every
// violation it finds in a single *InvalidPreferenceError.
package validator
