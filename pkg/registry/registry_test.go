package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/registry"
)

func memoryFactory(gotDSN *string) registry.Factory {
	return func(ctx context.Context, dsn string) (ports.CommitSink, func() error, error) {
		*gotDSN = dsn
		return memory.NewSink(), func() error { return nil }, nil
	}
}

func TestRegistry_OpenRegisteredSink(t *testing.T) {
	r := registry.NewRegistry()
	var dsn string
	r.Register("blob", memoryFactory(&dsn))

	sink, closer, err := r.Open(context.Background(), "blob", "blob://bucket/prefix")
	require.NoError(t, err)
	require.NotNil(t, sink)
	assert.Equal(t, "blob://bucket/prefix", dsn)
	assert.NoError(t, closer())
}

func TestRegistry_UnknownSink(t *testing.T) {
	r := registry.NewRegistry()

	_, _, err := r.Open(context.Background(), "tape", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink not found: tape")
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := registry.NewRegistry()
	var first, second string
	r.Register("blob", memoryFactory(&first))
	r.Register("blob", memoryFactory(&second))

	_, _, err := r.Open(context.Background(), "blob", "x")
	require.NoError(t, err)
	assert.Empty(t, first)
	assert.Equal(t, "x", second)
}
