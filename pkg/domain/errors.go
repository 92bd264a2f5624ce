package domain

import "errors"

// ErrNilOwner is returned when a nil owner is passed to an operation that
// semantically requires a concrete identity (Assign, IsAssociated).
var ErrNilOwner = errors.New("waiting owner must not be nil")

// ErrOwnerNotComparable is returned when an owner value cannot be used as a
// map key (slices, maps, funcs). Owners are matched by interface equality,
// so callers normally pass pointers.
var ErrOwnerNotComparable = errors.New("waiting owner must be a comparable value")

// ErrNodeCommitted is returned when an operation attempts to mutate or enter
// an element that has already been written to the sink.
var ErrNodeCommitted = errors.New("element is already committed")

// ErrNoSuchChild is returned when a pointer move names a child index the
// current element does not have.
var ErrNoSuchChild = errors.New("no element child at that index")

// ErrFlushRoot is returned when a pointer attempts to flush the document
// root. The root is committed by Finalize, never through a pointer.
var ErrFlushRoot = errors.New("cannot flush the document root before finalization")

// ErrAtRoot is returned when a pointer at the document root attempts to move
// to its parent.
var ErrAtRoot = errors.New("pointer is at the document root")

// ErrFinalized is returned when a build operation runs against a tree whose
// Finalize has already completed.
var ErrFinalized = errors.New("document is already finalized")
