package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manasamurali63/queuectl/job"
)

// enqueuePayload is the --json form of an enqueue request.
type enqueuePayload struct {
	Command    string `json:"command"`
	MaxRetries *int   `json:"max_retries"`
}

func newEnqueueCmd(a *app) *cobra.Command {
	var (
		command    string
		jsonArg    string
		maxRetries int
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Add a shell command to the queue",
		Example: `  queuectl enqueue --command "echo hello"
  queuectl enqueue --command "flaky.sh" --max-retries 5
  queuectl enqueue --json '{"command": "backup.sh", "max_retries": 2}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (command == "") == (jsonArg == "") {
				return errors.New("exactly one of --command or --json is required")
			}

			var j *job.Job
			switch {
			case jsonArg != "":
				var p enqueuePayload
				// Malformed payloads are rejected before anything is
				// persisted.
				if err := json.Unmarshal([]byte(jsonArg), &p); err != nil {
					return fmt.Errorf("invalid --json payload: %w", err)
				}
				if p.Command == "" {
					return errors.New(`--json payload must include a non-empty "command"`)
				}
				if p.MaxRetries != nil && *p.MaxRetries < 0 {
					return errors.New(`--json "max_retries" must be non-negative`)
				}
				j = job.New(p.Command, p.MaxRetries)
			default:
				var override *int
				if cmd.Flags().Changed("max-retries") {
					if maxRetries < 0 {
						return errors.New("--max-retries must be non-negative")
					}
					override = &maxRetries
				}
				j = job.New(command, override)
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			if err := s.Enqueue(cmd.Context(), j); err != nil {
				return err
			}

			fmt.Printf("Enqueued %s\n", j.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&command, "command", "", "shell command to run")
	cmd.Flags().StringVar(&jsonArg, "json", "", "JSON job payload")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0,
		"per-job retry ceiling (overrides the configured default)")
	return cmd
}
