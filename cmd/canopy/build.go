package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/pkg/adapters/loamsource"
	"github.com/aretw0/canopy/pkg/outline"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/spf13/cobra"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build [plan]",
	Short: "Build a document from an outline plan",
	Long: `Replays an outline plan through the builder, committing each finished
element to the configured sink as it closes.

The plan is either a YAML/JSON file given as an argument or a loam workspace
of Markdown files given via --workspace. Sections the plan marks as held stay
open until the final release pass; --finalize=false skips that pass and
leaves them waiting.`,
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		workspace, _ := cmd.Flags().GetString("workspace")
		sinkName, _ := cmd.Flags().GetString("sink")
		finalize, _ := cmd.Flags().GetBool("finalize")
		jsonMode, _ := cmd.Flags().GetBool("json")

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

		doc, err := outline.New(sink, plan, cli.BuilderOptions(logger, debug)...)
		if err != nil {
			fmt.Printf("Error initializing builder: %v\n", err)
			os.Exit(1)
		}

		if err := plan.Build(ctx, doc); err != nil {
			fmt.Printf("Error building document: %v\n", err)
			os.Exit(1)
		}

		if held := doc.Holds(); len(held) > 0 && !jsonMode {
			cli.PrintSystemMessage("Held: %v", held)
		}

		if finalize {
			if err := doc.Finalize(ctx); err != nil {
				fmt.Printf("Error finalizing document: %v\n", err)
				os.Exit(1)
			}
		}

		if jsonMode {
			if err := printCommitLog(ctx, sink, doc.DocID()); err != nil {
				fmt.Printf("Error reading commit log: %v\n", err)
				os.Exit(1)
			}
			return
		}

		stats := doc.Stats()
		cli.PrintSystemMessage("Document '%s': %d nodes, %d committed, %d waiting.",
			stats.DocID, stats.Nodes, stats.Committed, stats.Waiting)
	},
}

// loadPlan reads the outline from a plan file argument or a loam workspace.
func loadPlan(ctx context.Context, workspace string, args []string) (*outline.Outline, error) {
	if workspace != "" {
		src, err := loamsource.Open(workspace)
		if err != nil {
			return nil, err
		}
		return src.Outline(ctx)
	}
	if len(args) > 0 {
		return outline.ParseFile(args[0])
	}
	return nil, fmt.Errorf("provide a plan file or a --workspace directory")
}

// printCommitLog dumps the document's commit records as NDJSON, one record
// per line in commit order. Fire-and-forget sinks have no log to read back.
func printCommitLog(ctx context.Context, sink ports.CommitSink, docID string) error {
	log, ok := sink.(ports.CommitLog)
	if !ok {
		return fmt.Errorf("sink does not keep a readable commit log")
	}
	records, err := log.Committed(ctx, docID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("workspace", "w", "", "Build from a loam workspace directory instead of a plan file")
	buildCmd.Flags().String("sink", "", "Commit sink to use: memory, file, redis, postgres or kafka (default from env)")
	buildCmd.Flags().Bool("finalize", true, "Release held sections and commit the root when the plan ends")
	buildCmd.Flags().Bool("json", false, "Print the commit log as NDJSON instead of a summary")
}
