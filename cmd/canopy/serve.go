package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/pkg/adapters/httpapi"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/outline"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve [plan]",
	Short: "Serve a build state over HTTP",
	Long: `Replays an outline plan and exposes the resulting build state as a JSON
API. Clients can inspect the tree, release held sections and finalize the
document; Prometheus metrics are exposed on /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		workspace, _ := cmd.Flags().GetString("workspace")
		sinkName, _ := cmd.Flags().GetString("sink")
		port, _ := cmd.Flags().GetString("port")

		logger := cli.CreateLogger(debug)
		config.LoadEnv(logger)
		cfg := config.FromEnv()
		if sinkName != "" {
			cfg.Sink = sinkName
		}

		ctx := context.Background()

		plan, err := loadPlan(ctx, workspace, args)
		if err != nil {
			fmt.Printf("Error loading plan: %v\n", err)
			os.Exit(1)
		}

		sink, closeSink, err := cli.CreateSink(cfg, logger)
		if err != nil {
			fmt.Printf("Error creating sink: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = closeSink() }()

		doc, err := outline.New(sink, plan,
			cli.BuilderOptions(logger, debug, canopy.WithMetrics(observability.New(nil)))...)
		if err != nil {
			fmt.Printf("Error initializing builder: %v\n", err)
			os.Exit(1)
		}
		if err := plan.Build(ctx, doc); err != nil {
			fmt.Printf("Error building document: %v\n", err)
			os.Exit(1)
		}

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: httpapi.NewHandler(doc),
		}

		sc := cli.NewSignalContext(ctx)
		defer sc.Cancel()

		g, gctx := errgroup.WithContext(sc)

		g.Go(func() error {
			fmt.Printf("Starting Canopy Server on %s\n", srv.Addr)
			fmt.Printf("Serving document: %s\n", doc.DocID())
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			if sig := sc.Signal(); sig != nil {
				fmt.Printf("\nStart shutdown... Signal: %v\n", sig)
			}

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				return srv.Close()
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Canopy Server stopped gracefully")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().StringP("workspace", "w", "", "Serve a loam workspace directory instead of a plan file")
	serveCmd.Flags().String("sink", "", "Commit sink to use: memory, file, redis, postgres or kafka (default from env)")
}
