package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manasamurali63/queuectl"
	"github.com/manasamurali63/queuectl/store/file"
)

func newLockCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Operate on the file backend's lock marker",
	}
	cmd.AddCommand(newLockBreakCmd(a))
	return cmd
}

func newLockBreakCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "break",
		Short: "Remove a stale lock marker left by a crashed process",
		Long: `Remove the lock marker file unconditionally.

A process that crashes while holding the lock leaves the marker behind,
blocking every later operation until it times out. Breaking the lock
while a live process holds it corrupts the aggregate — only use this
after confirming the owner is gone (see the pid in the marker file).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.backendName() != queuectl.BackendFile {
				return fmt.Errorf("lock break applies to the %q backend only", queuectl.BackendFile)
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			fs, ok := s.(*file.Store)
			if !ok {
				return fmt.Errorf("store is not file-backed")
			}

			if pid, hostname, ok := fs.Lock().Owner(); ok {
				fmt.Printf("Breaking lock held by pid %d on %s\n", pid, hostname)
			}
			if err := fs.Lock().Break(); err != nil {
				return err
			}

			fmt.Println("Lock cleared.")
			return nil
		},
	}
}
