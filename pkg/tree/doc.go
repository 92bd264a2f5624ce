/*
Package tree implements the structured document tree that Canopy builds
against a commit sink.

Elements are created and mutated through a Pointer (cursor) and written
out ("committed") at most once each, in post-order, either explicitly via
Flush or at Finalize. The Waiting registry lets a caller park an element
in an unfinished state under an external owner, so that no flush commits
it, or anything beneath it, until the owner releases it.

# Key Entities

  - Tree: one document build; owns the root, the commit sequence, and the
    waiting registry.
  - Node: one structure element; committed exactly once, never mutated
    afterwards.
  - Pointer: a cursor used to open, fill, close, and flush elements.
  - Waiting: the owner/element association registry and its release
    cascades.

A Tree and everything reachable from it belongs to a single logical
goroutine; the package provides no internal locking.
*/
package tree
