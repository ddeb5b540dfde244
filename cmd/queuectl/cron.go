package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/manasamurali63/queuectl/cron"
)

func newCronCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Manage recurring enqueue schedules",
	}
	cmd.AddCommand(
		newCronAddCmd(a),
		newCronListCmd(a),
		newCronRemoveCmd(a),
		newCronEnableCmd(a, true),
		newCronEnableCmd(a, false),
	)
	return cmd
}

func newCronAddCmd(a *app) *cobra.Command {
	var (
		schedule   string
		command    string
		maxRetries int
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a cron entry",
		Args:  cobra.ExactArgs(1),
		Example: `  queuectl cron add nightly-backup --schedule "0 3 * * *" --command "backup.sh"
  queuectl cron add poll --schedule "@every 30s" --command "poll.sh" --max-retries 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if schedule == "" || command == "" {
				return errors.New("--schedule and --command are required")
			}

			var override *int
			if cmd.Flags().Changed("max-retries") {
				if maxRetries < 0 {
					return errors.New("--max-retries must be non-negative")
				}
				override = &maxRetries
			}

			e, err := cron.New(args[0], schedule, command, override)
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			if err := s.AddCron(cmd.Context(), e); err != nil {
				return err
			}

			fmt.Printf("Added cron %q (%s), next run %s\n",
				e.Name, e.ID, e.NextRunAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression (5-field or @every/@hourly)")
	cmd.Flags().StringVar(&command, "command", "", "shell command to enqueue on each firing")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0,
		"per-job retry ceiling for enqueued jobs")
	return cmd
}

func newCronListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cron entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			entries, err := s.ListCrons(cmd.Context())
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No cron entries.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSCHEDULE\tENABLED\tLAST RUN\tNEXT RUN\tCOMMAND")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\t%s\n",
					e.Name, e.Schedule, e.Enabled,
					fmtOptTime(e.LastRunAt), fmtOptTime(e.NextRunAt), e.Command)
			}
			return w.Flush()
		},
	}
}

func newCronRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a cron entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			removed, err := s.RemoveCron(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no cron entry named %q", args[0])
			}

			fmt.Printf("Removed cron %q\n", args[0])
			return nil
		},
	}
}

func newCronEnableCmd(a *app, enable bool) *cobra.Command {
	use, short := "enable NAME", "Enable a cron entry"
	if !enable {
		use, short = "disable NAME", "Disable a cron entry without removing it"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			found, err := s.SetCronEnabled(cmd.Context(), args[0], enable)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no cron entry named %q", args[0])
			}

			state := "enabled"
			if !enable {
				state = "disabled"
			}
			fmt.Printf("Cron %q %s\n", args[0], state)
			return nil
		},
	}
}

func fmtOptTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
