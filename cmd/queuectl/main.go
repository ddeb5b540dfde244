// Command queuectl is the command-line interface to the queue: enqueue
// shell commands, run worker pools, inspect state, and manage the dead
// letter queue and cron entries.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.closeStore()

	return newRootCmd(a).Execute()
}
