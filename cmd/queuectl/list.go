package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/manasamurali63/queuectl/id"
	"github.com/manasamurali63/queuectl/job"
)

func newListCmd(a *app) *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := job.State(state)
			switch filter {
			case "", job.StatePending, job.StateProcessing:
			default:
				return fmt.Errorf("invalid --state %q (want %q or %q)",
					state, job.StatePending, job.StateProcessing)
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			jobs, err := s.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if len(jobs) == 0 {
				fmt.Println("No jobs.")
				return nil
			}
			printJobs(jobs)
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "filter by state (pending or processing)")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one job by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := id.ParseJobID(args[0])
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			j, err := s.Get(cmd.Context(), jobID)
			if err != nil {
				return err
			}

			fmt.Printf("ID:          %s\n", j.ID)
			fmt.Printf("Command:     %s\n", j.Command)
			fmt.Printf("State:       %s\n", j.State)
			fmt.Printf("Attempts:    %d\n", j.Attempts)
			if j.MaxRetries != nil {
				fmt.Printf("Max retries: %d\n", *j.MaxRetries)
			} else {
				fmt.Printf("Max retries: %d (default)\n", a.cfg.MaxRetries)
			}
			fmt.Printf("Created:     %s\n", j.CreatedAt.Format(time.RFC3339))
			fmt.Printf("Updated:     %s\n", j.UpdatedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func printJobs(jobs []*job.Job) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tATTEMPTS\tUPDATED\tCOMMAND")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			j.ID, j.State, j.Attempts, j.UpdatedAt.Format(time.RFC3339), j.Command)
	}
	_ = w.Flush() //nolint:errcheck
}
