package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change the persisted queue configuration",
	}
	cmd.AddCommand(newConfigGetCmd(a), newConfigSetCmd(a))
	return cmd
}

func newConfigGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get [KEY]",
		Short: "Show the configuration, or one key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v, err := a.cfg.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Println(v)
				return nil
			}

			fmt.Printf("max_retries = %d\n", a.cfg.MaxRetries)
			fmt.Printf("backoff_base = %v\n", a.cfg.BackoffBase)
			fmt.Printf("backend = %s\n", a.cfg.Backend)
			return nil
		},
	}
}

func newConfigSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one configuration key",
		Args:  cobra.ExactArgs(2),
		Example: `  queuectl config set max_retries 5
  queuectl config set backoff_base 3
  queuectl config set backend sqlite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := a.cfg.Save(a.configPath()); err != nil {
				return err
			}

			fmt.Printf("%s = %s\n", args[0], args[1])
			return nil
		},
	}
}
