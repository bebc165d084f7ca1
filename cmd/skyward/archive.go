package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skyward-ai/skyward/internal/archive"
	"github.com/skyward-ai/skyward/internal/mission"
	"github.com/skyward-ai/skyward/internal/types"
)

var archiveStatus string

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect archived mission snapshots",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived missions",
	RunE: func(cmd *cobra.Command, args []string) error {
		arc, err := openArchive()
		if err != nil {
			return err
		}
		defer arc.Close()

		snaps, err := arc.ListSnapshots(cmd.Context(), mission.Status(archiveStatus))
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Println("no archived missions")
			return nil
		}

		for _, snap := range snaps {
			completed := "-"
			if snap.CompletedAt != nil {
				completed = snap.CompletedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%s  %-10s  %3d%%  %-20s  %s\n",
				snap.MissionID, snap.Status, snap.Progress, snap.WorkflowName, completed)
		}
		return nil
	},
}

var archiveShowCmd = &cobra.Command{
	Use:   "show <mission-id>",
	Short: "Show one archived mission with its log history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := types.ParseID(args[0])
		if err != nil {
			return err
		}

		arc, err := openArchive()
		if err != nil {
			return err
		}
		defer arc.Close()

		snap, err := arc.GetSnapshot(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Printf("Mission:  %s\n", snap.MissionID)
		fmt.Printf("Workflow: %s\n", snap.WorkflowName)
		fmt.Printf("Status:   %s\n", snap.Status)
		fmt.Printf("Progress: %d%%\n", snap.Progress)
		if len(snap.Logs) > 0 {
			fmt.Println("Logs:")
			for _, l := range snap.Logs {
				fmt.Printf("  %s [%s] %s\n",
					l.Timestamp.Format("15:04:05"), l.Level, l.Message)
			}
		}
		return nil
	},
}

func openArchive() (*archive.Store, error) {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Archive.Path == "" {
		return nil, fmt.Errorf("archiving is disabled (archive.path is empty)")
	}
	return archive.Open(cfg.Archive.Path)
}

func init() {
	archiveListCmd.Flags().StringVar(&archiveStatus, "status", "", "Filter by terminal status (completed, failed, cancelled)")
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveShowCmd)
}
