// clawcrm is a personal relationship manager that lives in a single
// SQLite file. Meeting notes go in; people, relationships, and
// searchable context come out. Runs fully offline by default.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
