package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jgoulah/dormwatch/internal/scraper"
)

var (
	debugVisible bool
	debugOutput  string
	debugBrowser bool
)

var debugCmd = &cobra.Command{
	Use:   "debug [room_id]",
	Short: "Fetch a room's raw billing page to debug the scraper",
	Long: `Fetches the billing page for one room and prints or saves the raw HTML,
along with what the page parser makes of it.

Flags:
  --browser    Fetch with headless Chrome instead of plain HTTP
  --visible    Show the browser window (implies --browser)
  --output     Save HTML to file instead of displaying`,
	Args: cobra.ExactArgs(1),
	RunE: runDebug,
}

func init() {
	debugCmd.Flags().BoolVar(&debugBrowser, "browser", false, "Fetch with headless Chrome")
	debugCmd.Flags().BoolVar(&debugVisible, "visible", false, "Show the browser window")
	debugCmd.Flags().StringVar(&debugOutput, "output", "", "Save HTML to this file")
	rootCmd.AddCommand(debugCmd)
}

func runDebug(cmd *cobra.Command, args []string) error {
	roomID := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	rooms, err := loadRooms(cfg)
	if err != nil {
		return err
	}
	room, ok := findRoom(rooms, roomID)
	if !ok {
		return fmt.Errorf("room %s is not configured", roomID)
	}

	var reader scraper.Reader
	if debugBrowser || debugVisible || cfg.GetReaderMode() == "browser" {
		b := scraper.NewBrowserReader(cfg.GetReaderBaseURL(), cfg.Reader.UserAgent, cfg.GetReaderTimeout())
		b.SetVisible(debugVisible)
		reader = b
	} else {
		reader = scraper.NewHTTPReader(cfg.GetReaderBaseURL(), cfg.Reader.UserAgent, cfg.GetReaderTimeout())
	}

	fmt.Printf("Fetching %s\n", scraper.PageURL(cfg.GetReaderBaseURL(), room))

	page, err := reader.FetchPage(context.Background(), room)
	if err != nil {
		return fmt.Errorf("fetching page: %w", err)
	}

	if debugOutput != "" {
		if err := os.WriteFile(debugOutput, []byte(page), 0644); err != nil {
			return fmt.Errorf("writing HTML: %w", err)
		}
		fmt.Printf("✓ Saved HTML to %s (%d bytes)\n", debugOutput, len(page))
	} else {
		fmt.Println(page)
	}

	value, err := scraper.ParsePowerPage(strings.NewReader(page))
	if err != nil {
		fmt.Printf("⚠ Parser: %v\n", err)
		return nil
	}
	fmt.Printf("✓ Parser: %s = %.2f kWh\n", room.Name, value)
	return nil
}
