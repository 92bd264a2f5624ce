/*
Package ports defines the driven ports (interfaces) for the Canopy builder.

These interfaces decouple the core tree logic from external implementations,
allowing committed elements to be written to various backends (memory, Redis,
Postgres, Kafka) without the tree knowing which one it talks to.

# Key Interfaces

  - CommitSink: receives the write-once record of every committed element.
  - CommitLog: optional read-back extension for store-like sinks, used by
    the inspection surfaces and by the reusable contract test.
*/
package ports
