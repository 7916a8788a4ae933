// Package cmp backports cmp.Or from the Go 1.22 standard library so the
// module builds with a Go 1.21 toolchain. Once the toolchain is Go 1.22
// or newer, delete this package and import the standard library "cmp"
// instead; call sites need no other change.
//
// The implementation of Or is copied verbatim from the Go standard
// library (src/cmp/cmp.go), Copyright 2023 The Go Authors, BSD-3-Clause.
package cmp

// Or returns the first of its arguments that is not equal to the zero value.
// If no argument is non-zero, it returns the zero value.
func Or[T comparable](vals ...T) T {
	var zero T
	for _, val := range vals {
		if val != zero {
			return val
		}
	}
	return zero
}
