package canopy_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/adapters/memory"
)

// ExampleNew demonstrates the full build cycle: grow a section, hold the
// paragraph that is not ready yet, flush what is finished, then release the
// hold and finalize. The held paragraph commits after its parent section,
// which is the point of holding it.
func ExampleNew() {
	sink := memory.NewSink()
	doc, err := canopy.New(sink, canopy.WithDocumentID("example"))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// 1. Build a section whose summary is still being written.
	doc.Open("section")
	doc.SetTitle("Results")

	doc.Open("paragraph")
	doc.Hold("summary") // keep this one back
	doc.Close()

	doc.Open("paragraph")
	doc.AddText("Raw numbers, available immediately.")
	doc.Close()

	// 2. Flush the section. The held paragraph stays uncommitted.
	if err := doc.Flush(ctx); err != nil {
		log.Fatal(err)
	}

	// 3. The summary arrives. Fill it in and release the hold.
	doc.MoveToHold("summary")
	doc.AddText("It worked.")
	if _, err := doc.Release(ctx, "summary"); err != nil {
		log.Fatal(err)
	}

	// 4. Commit whatever is left, root included.
	if err := doc.Finalize(ctx); err != nil {
		log.Fatal(err)
	}

	records, _ := sink.Committed(ctx, doc.DocID())
	for _, rec := range records {
		fmt.Printf("%d %s\n", rec.Seq, rec.Role)
	}
	// Output:
	// 1 paragraph
	// 2 section
	// 3 paragraph
	// 4 document
}
