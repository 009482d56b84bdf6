package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/heimdex/heimdex-timeline/internal/export"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		snapshotPath string
		req          export.ExportRequest
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a timeline snapshot as a CMX3600 EDL",
		Long: `Render one track of a saved timeline snapshot (the JSON returned by
GET /timeline) as a CMX3600 EDL. Without --out the EDL is written to stdout.`,
		Example: `  # Print the main track as EDL
  timeline export --snapshot timeline.json

  # Write a 25fps EDL of a specific track into ./exports
  timeline export --snapshot timeline.json --track 3f2a... --fps 25 --out exports`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.OutOrStdout(), snapshotPath, req)
		},
	}

	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Timeline snapshot JSON file")
	cmd.Flags().StringVar(&req.TrackID, "track", "", "Track id (default: main track, else first video track)")
	cmd.Flags().StringVar(&req.ProjectName, "project", export.DefaultProjectName, "EDL title and output file name")
	cmd.Flags().Float64Var(&req.FrameRate, "fps", export.DefaultFrameRate, "Frame rate")
	cmd.Flags().StringVar(&req.OutputDir, "out", "", "Write <project>.edl into this directory")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func runExport(w io.Writer, snapshotPath string, req export.ExportRequest) error {
	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	var st timeline.State
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}

	store := timeline.NewStore(nil)
	store.Restore(st)

	resp, err := export.Run(store, req)
	if err != nil {
		return err
	}
	if resp.OutputPath == "" {
		_, err = io.WriteString(w, resp.EDL)
		return err
	}
	_, err = fmt.Fprintf(w, "wrote %d event(s) to %s\n", resp.ClipCount, resp.OutputPath)
	return err
}
