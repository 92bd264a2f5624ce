package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/aretw0/canopy/pkg/adapters/kafka"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/adapters/postgres"
	"github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/registry"
)

// CreateSink builds the commit sink named by the configuration. The second
// return value closes the sink's connections; it is always safe to call.
func CreateSink(cfg config.Config, logger *slog.Logger) (ports.CommitSink, func() error, error) {
	switch cfg.Sink {
	case "", "memory":
		return memory.NewSink(), func() error { return nil }, nil

	case "file":
		return file.NewSink(cfg.FileDir), func() error { return nil }, nil

	case "redis":
		sink, err := redis.NewFromURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing redis sink: %w", err)
		}
		return sink, sink.Close, nil

	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, nil, fmt.Errorf("CANOPY_POSTGRES_URL is required for the postgres sink")
		}
		db, err := postgres.Connect(postgres.DefaultConfig(cfg.PostgresURL))
		if err != nil {
			return nil, nil, fmt.Errorf("error connecting to postgres: %w", err)
		}
		return postgres.NewSink(db), db.Close, nil

	case "kafka":
		sink, err := kafka.NewSink(cfg.KafkaBrokers, cfg.KafkaTopic, kafka.WithLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing kafka sink: %w", err)
		}
		return sink, sink.Close, nil

	default:
		// Names we do not know natively may belong to a host-registered
		// factory (CANOPY_SINK_DSN carries its address).
		sink, closer, err := registry.Default.Open(context.Background(), cfg.Sink, cfg.SinkDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sink %q unavailable (built in: memory, file, redis, postgres, kafka): %w", cfg.Sink, err)
		}
		return sink, closer, nil
	}
}

// BuilderOptions prepares the functional options shared by the commands.
// Extra options (metrics for serving, a fixed document ID) are applied last.
func BuilderOptions(logger *slog.Logger, debug bool, extra ...canopy.Option) []canopy.Option {
	opts := []canopy.Option{
		canopy.WithLogger(logger),
	}
	if debug {
		opts = append(opts, canopy.WithLifecycleHooks(createDebugHooks(logger)))
	}
	return append(opts, extra...)
}

// CreateBuilder initializes a Builder with standard CLI conventions.
func CreateBuilder(sink ports.CommitSink, logger *slog.Logger, debug bool, extra ...canopy.Option) (*canopy.Builder, error) {
	doc, err := canopy.New(sink, BuilderOptions(logger, debug, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("error initializing builder: %w", err)
	}
	return doc, nil
}
