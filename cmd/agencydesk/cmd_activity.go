package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	activityLimit int
	activityPrune time.Duration
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the local mutation journal",
	Long: `Lists the mutations this client performed (creates, updates,
deletes, toggles), newest first. The journal is local state only; it
never leaves the machine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if journal == nil {
			return errors.New("activity journal unavailable")
		}
		if activityPrune > 0 {
			n, err := journal.Prune(activityPrune)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d entries\n", n)
		}

		entries, err := journal.Recent(activityLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "no recorded activity")
			return nil
		}
		for _, e := range entries {
			status := "ok"
			if !e.OK {
				status = "FAILED"
			}
			fmt.Fprintf(out, "%s  %-18s %-13s %-26s %-6s %s\n",
				e.At.Format("2006-01-02 15:04"), e.Entity, e.Op, e.EntityID, status, e.Message)
		}
		return nil
	},
}

func init() {
	activityCmd.Flags().IntVar(&activityLimit, "limit", 50, "max entries to show")
	activityCmd.Flags().DurationVar(&activityPrune, "prune", 0, "also delete entries older than this (e.g. 720h)")
}
