package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/outline"
	"github.com/spf13/cobra"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect [plan]",
	Short: "Preview the build state of an outline plan",
	Long: `Replays a plan into an in-memory sink and renders the resulting tree,
showing which elements a real build would have committed and which holds
would still be waiting. Nothing is written to a durable sink.`,
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		workspace, _ := cmd.Flags().GetString("workspace")
		mermaid, _ := cmd.Flags().GetBool("mermaid")

		logger := cli.CreateLogger(debug)
		ctx := context.Background()

		plan, err := loadPlan(ctx, workspace, args)
		if err != nil {
			fmt.Printf("Error loading plan: %v\n", err)
			os.Exit(1)
		}

		doc, err := outline.New(memory.NewSink(), plan, cli.BuilderOptions(logger, debug)...)
		if err != nil {
			fmt.Printf("Error initializing builder: %v\n", err)
			os.Exit(1)
		}
		if err := plan.Build(ctx, doc); err != nil {
			fmt.Printf("Error building document: %v\n", err)
			os.Exit(1)
		}

		if mermaid {
			fmt.Print(graph.GenerateMermaid(doc.Snapshot(), &graph.Overlay{CursorNode: doc.CursorID()}))
			return
		}

		tui.PrintBanner()
		report := buildReport(doc.Stats(), doc.Snapshot())
		if out, rerr := tui.NewRenderer()(report); rerr == nil {
			fmt.Print(out)
		} else {
			fmt.Print(report)
		}
	},
}

// buildReport formats the tree as markdown for the glamour renderer.
func buildReport(stats domain.TreeStats, infos []domain.NodeInfo) string {
	var sb strings.Builder
	sb.WriteString("# Build Preview\n\n")
	fmt.Fprintf(&sb, "Document `%s`: %d nodes, %d committed, %d waiting.\n\n",
		stats.DocID, stats.Nodes, stats.Committed, stats.Waiting)

	for _, info := range infos {
		label := fmt.Sprintf("%s #%d", info.Role, info.ID)
		if info.Title != "" {
			label = fmt.Sprintf("%s %q", label, info.Title)
		}
		status := "open"
		switch {
		case info.Committed:
			status = "committed"
		case info.Waiting:
			status = "waiting"
		}
		fmt.Fprintf(&sb, "%s- **%s** (%s)\n", strings.Repeat("  ", info.Depth), label, status)
	}
	return sb.String()
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringP("workspace", "w", "", "Inspect a loam workspace directory instead of a plan file")
	inspectCmd.Flags().Bool("mermaid", false, "Output a Mermaid diagram of the build state")
}
