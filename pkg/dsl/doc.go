/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing Canopy build plans.

It allows developers to define document outlines using a type-safe, fluent builder pattern
instead of relying on external YAML or JSON files. This is particularly useful for dynamic plan
generation, unit testing, and leveraging IDE autocompletion/type-checking.

Example usage:

	package main

	import (
		"context"

		"github.com/aretw0/canopy/pkg/adapters/memory"
		"github.com/aretw0/canopy/pkg/dsl"
		"github.com/aretw0/canopy/pkg/outline"
	)

	func main() {
		plan, err := dsl.Document("weekly-report").
			Title("Weekly Report").
			Section("Summary", func(s *dsl.SectionBuilder) {
				s.Hold("summary") // filled in once the numbers are known
			}).
			Section("Results", func(s *dsl.SectionBuilder) {
				s.Text("All deployments green.").Flush()
			}).
			Build()
		if err != nil {
			panic(err)
		}

		// The resulting plan replays against any sink.
		doc, _ := outline.New(memory.NewSink(), plan)
		_ = plan.Build(context.Background(), doc)
	}
*/
package dsl
