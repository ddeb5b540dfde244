package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/manasamurali63/queuectl"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counts and registered workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			counts, err := s.Counts(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Backend:      %s\n", a.backendName())
			fmt.Printf("Pending:      %d\n", counts.Pending)
			fmt.Printf("Processing:   %d\n", counts.Processing)
			fmt.Printf("Dead letter:  %d\n", counts.DeadLetter)
			fmt.Printf("Total active: %d\n", counts.TotalActive)

			workers, err := s.ListWorkers(ctx)
			if err != nil {
				return err
			}
			if len(workers) == 0 {
				fmt.Println("\nNo registered workers.")
				return nil
			}

			// A worker missing several heartbeats likely crashed without
			// deregistering.
			staleAfter := 3 * a.runtime.HeartbeatInterval
			now := queuectl.Now()

			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WORKER\tPID\tHOST\tCONCURRENCY\tLAST SEEN\tHEALTH")
			for _, wk := range workers {
				health := "alive"
				if now.Sub(wk.LastSeenAt) > staleAfter {
					health = "stale"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%s\n",
					wk.ID, wk.PID, wk.Hostname, wk.Concurrency,
					wk.LastSeenAt.Format(time.RFC3339), health)
			}
			return w.Flush()
		},
	}
}
