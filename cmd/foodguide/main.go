// Command foodguide runs the recommendation pipeline from the terminal.
//
// Usage:
//
//	foodguide recommend --area "Karol Bagh" --time Evening --budget Mid-range
//	foodguide validate --area "Lajpat ngr"
//	foodguide areas
//	foodguide area "Chandni Chowk"
//	foodguide prompt --area "Connaught Place" --pref momos
package main

import (
	"fmt"
	"os"

	"streetfood-backend/internal/shared/config"
)

func main() {
	if err := newRootCmd(config.Load).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
