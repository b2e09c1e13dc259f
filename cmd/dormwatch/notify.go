package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jgoulah/dormwatch/internal/logging"
	"github.com/jgoulah/dormwatch/internal/notifier"
	"github.com/jgoulah/dormwatch/pkg/models"
)

var notifyValue float64

var notifyCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a test alert through every enabled channel",
	Long: `Builds a sample low-power alert for the first configured room and sends it
through every enabled notification channel, reporting each result.`,
	Args: cobra.NoArgs,
	RunE: runNotifyTest,
}

func init() {
	notifyCmd.Flags().Float64Var(&notifyValue, "value", 1.23, "Power value to put in the test alert")
	rootCmd.AddCommand(notifyCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, closeLog, err := logging.New(cfg.Monitor.Logging)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer closeLog()

	notifiers, err := notifier.FromConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer notifier.CloseAll(notifiers)

	if len(notifiers) == 0 {
		fmt.Println("No notification channels enabled")
		return nil
	}

	room := models.Room{ID: "test", Name: "Test room", Enabled: true}
	if len(cfg.Dormitories) > 0 {
		if rooms, err := loadRooms(cfg); err == nil && len(rooms) > 0 {
			room = rooms[0]
		}
	}

	alert := models.Alert{
		Room:      room,
		Value:     notifyValue,
		Threshold: room.EffectiveThreshold(cfg.GetGlobalThreshold()),
		Timestamp: time.Now(),
	}

	failed := 0
	for _, n := range notifiers {
		if err := n.Send(context.Background(), alert); err != nil {
			failed++
			logger.Error("test notification failed", zap.String("channel", n.Name()), zap.Error(err))
			fmt.Printf("✗ %s: %v\n", n.Name(), err)
			continue
		}
		fmt.Printf("✓ %s\n", n.Name())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d channel(s) failed", failed, len(notifiers))
	}
	return nil
}
