package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/manasamurali63/queuectl/id"
)

func newDLQCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Manage the dead letter queue",
	}
	cmd.AddCommand(newDLQListCmd(a), newDLQRetryCmd(a), newDLQRemoveCmd(a))
	return cmd
}

func newDLQListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List dead-lettered jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			dead, err := s.ListDead(cmd.Context())
			if err != nil {
				return err
			}

			if len(dead) == 0 {
				fmt.Println("Dead letter queue is empty.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tATTEMPTS\tUPDATED\tCOMMAND")
			for _, j := range dead {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
					j.ID, j.Attempts, j.UpdatedAt.Format(time.RFC3339), j.Command)
			}
			return w.Flush()
		},
	}
}

func newDLQRetryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "retry ID",
		Short: "Move a dead job back to pending",
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
			moved, err := s.RequeueDead(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			if !moved {
				return fmt.Errorf("no dead job with id %s", jobID)
			}

			fmt.Printf("Requeued %s\n", jobID)
			return nil
		},
	}
}

func newDLQRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a job from the dead letter queue",
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
			if err := s.RemoveDead(cmd.Context(), jobID); err != nil {
				return err
			}

			fmt.Printf("Removed %s\n", jobID)
			return nil
		},
	}
}
