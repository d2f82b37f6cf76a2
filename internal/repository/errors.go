// Package repository implements the typed stores over MySQL. Sentinel
// errors defined here let the service layer distinguish failure modes
// without inspecting driver errors; anything else that bubbles up from
// the driver is a storage fault and is wrapped with context.
package repository

import "errors"

// ErrNotFound is returned when a referenced account, request or notice
// id does not resolve to a row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering an account whose
// normalized email is already taken.
var ErrEmailExists = errors.New("email already exists")
