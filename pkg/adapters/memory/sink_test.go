package memory_test

import (
	"testing"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/ports"
)

func TestMemorySink_Contract(t *testing.T) {
	sink := memory.NewSink()
	ports.RunCommitSinkContract(t, sink)
}
