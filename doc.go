/*
Package canopy builds structured document trees incrementally and streams
finished subtrees to a pluggable commit sink while the build is still going.

It implements an "Eager Commit with Held Subtrees" model: a cursor grows the
tree element by element, a flush walks the finished subtree bottom-up and
commits each element exactly once, and a "hold" parks an element so that no
flush can commit it (or anything beneath it) until the hold is released.

# Concept

Canopy treats a document as a tree of role-tagged elements. The library
manages element identity, commit ordering, and the bookkeeping between hold
handles and elements, while your application ("Host") decides when parts of
the document are finished and where commits go. This Hexagonal Architecture
allows Canopy to be embedded in any interface: CLI, HTTP Server, or AI Agent
infrastructure.

# Key Features

  - Eager Commits: Finished subtrees leave memory as soon as they are
    flushed, bottom-up, each element exactly once.
  - Held Subtrees: A hold keeps an unfinished element out of every flush
    until released, even when its parent commits first.
  - Hexagonal Architecture: Core logic is decoupled from sinks (Memory,
    Redis, Postgres, Kafka).
  - Strict Bookkeeping: Holds and elements stay in one-to-one
    correspondence; reassigning either side supersedes the old pairing.

# Usage

Initialize a Builder with a commit sink, grow the tree with the cursor
operations, and flush as sections finish. Hold the sections you cannot
finish yet and release them when their missing pieces arrive.

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/canopy"
		"github.com/aretw0/canopy/pkg/adapters/memory"
	)

	func main() {
		sink := memory.NewSink()
		doc, err := canopy.New(sink)
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()

		// Build a section whose summary is not ready yet.
		doc.Open("section")
		doc.SetTitle("Results")

		doc.Open("paragraph")
		doc.Hold("summary") // park it, commits must wait
		doc.Close()

		doc.Open("paragraph")
		doc.AddText("Raw numbers, available immediately.")
		doc.Close()

		// Commits the section and the second paragraph.
		// The held paragraph stays back.
		if err := doc.Flush(ctx); err != nil {
			log.Fatal(err)
		}

		// The summary arrives. Fill it in and let it go.
		doc.MoveToHold("summary")
		doc.AddText("It worked.")
		if _, err := doc.Release(ctx, "summary"); err != nil {
			log.Fatal(err)
		}

		// Commit everything that is left, root included.
		if err := doc.Finalize(ctx); err != nil {
			log.Fatal(err)
		}

		records, _ := sink.Committed(ctx, doc.DocID())
		log.Printf("committed %d elements", len(records))
	}
*/
package canopy
