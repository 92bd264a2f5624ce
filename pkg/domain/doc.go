/*
Package domain contains the core domain models for the Canopy builder.

It defines the vocabulary shared by the tree core, the commit sinks and the
presentation layers: structure roles, the commit record envelope written to
sinks, read-only tree snapshots, lifecycle events and the error taxonomy.
This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Role: the semantic kind of a structure element (section, paragraph, ...).
  - CommitRecord: the write-once envelope a sink receives per committed node.
  - NodeInfo: a read-only snapshot row used for inspection and rendering.
  - LifecycleHooks: observability callbacks emitted by the tree core.
*/
package domain
