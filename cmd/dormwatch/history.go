package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [room_id]",
	Short: "Show recorded readings",
	Long:  `Lists readings stored by past monitoring cycles, newest first.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of readings to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var roomID string
	if len(args) == 1 {
		roomID = args[0]
	}

	ctx := context.Background()
	readings, err := db.ListReadings(ctx, roomID, historyLimit)
	if err != nil {
		return fmt.Errorf("listing readings: %w", err)
	}

	if len(readings) == 0 {
		fmt.Println("No readings recorded")
		return nil
	}

	fmt.Printf("%-20s %-12s %10s %10s  %-24s %s\n", "Checked", "Room", "Power", "Threshold", "Outcome", "")
	fmt.Println("--------------------------------------------------------------------------------------------")
	for _, r := range readings {
		power := "-"
		if r.Value != nil {
			power = fmt.Sprintf("%.2f", *r.Value)
		}
		fmt.Printf("%-20s %-12s %10s %10.2f  %-24s %s\n",
			r.CheckedAt.Local().Format("2006-01-02 15:04:05"),
			r.RoomName, power, r.Threshold, r.Outcome, humanize.Time(r.CheckedAt))
	}

	if roomID != "" {
		last, err := db.LastOutcome(ctx, roomID, "notified")
		if err != nil {
			return fmt.Errorf("querying last notification: %w", err)
		}
		if last.IsZero() {
			fmt.Printf("\nRoom %s has never been notified\n", roomID)
		} else {
			fmt.Printf("\nLast notified %s\n", humanize.Time(last))
		}
	}

	fmt.Printf("\nTotal: %s reading(s)\n", humanize.Comma(int64(len(readings))))
	return nil
}
