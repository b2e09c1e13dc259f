package main

import (
	"errors"
	"os"

	"github.com/jgoulah/dormwatch/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Configuration faults exit 2 so supervisors do not restart in a loop
		if errors.Is(err, config.ErrInvalid) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
