package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dormwatch/internal/scraper"
	"github.com/jgoulah/dormwatch/pkg/models"
)

var checkCmd = &cobra.Command{
	Use:   "check [room_id...]",
	Short: "Query remaining power without sending notifications",
	Long: `Queries the billing page for the given rooms (or every enabled room) and prints
each balance against its threshold. Nothing is notified or recorded.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	rooms, err := loadRooms(cfg)
	if err != nil {
		return err
	}

	selected, err := selectRooms(rooms, args)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		fmt.Println("No rooms configured for monitoring")
		return nil
	}

	reader, err := scraper.New(cfg)
	if err != nil {
		return fmt.Errorf("creating power reader: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	pacing := cfg.GetRequestInterval()

	fmt.Printf("Checking %d room(s)...\n\n", len(selected))

	low := 0
	for i, room := range selected {
		if i > 0 && !pause(ctx, pacing) {
			fmt.Println("\nInterrupted")
			break
		}

		threshold := room.EffectiveThreshold(cfg.GetGlobalThreshold())
		value, err := reader.Read(ctx, room)
		switch {
		case errors.Is(err, models.ErrUnsupported):
			fmt.Printf("⚠ %-20s not supported by the billing system\n", room.Name)
		case err != nil:
			fmt.Printf("✗ %-20s %v\n", room.Name, err)
		case value < threshold:
			low++
			fmt.Printf("⚠ %-20s %8.2f kWh  (below %.2f)\n", room.Name, value, threshold)
		default:
			fmt.Printf("✓ %-20s %8.2f kWh\n", room.Name, value)
		}
	}

	fmt.Printf("\n%d of %d room(s) below threshold\n", low, len(selected))
	return nil
}

// pause waits d, returning false if ctx is cancelled first
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// selectRooms returns the enabled rooms, or the named rooms in argument order
func selectRooms(rooms []models.Room, ids []string) ([]models.Room, error) {
	if len(ids) == 0 {
		var enabled []models.Room
		for _, r := range rooms {
			if r.Enabled {
				enabled = append(enabled, r)
			}
		}
		return enabled, nil
	}

	selected := make([]models.Room, 0, len(ids))
	for _, id := range ids {
		room, ok := findRoom(rooms, id)
		if !ok {
			return nil, fmt.Errorf("room %s is not configured", id)
		}
		selected = append(selected, room)
	}
	return selected, nil
}

func findRoom(rooms []models.Room, id string) (models.Room, bool) {
	for _, r := range rooms {
		if r.ID == id {
			return r, true
		}
	}
	return models.Room{}, false
}
