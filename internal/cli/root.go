// Package cli wires the practice backend's commands: the HTTP server
// plus offline backup and restore maintenance.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "edms",
		Short:         "Equine practice management backend",
		SilenceUsage:  true,
		SilenceErrors: false,
		// Bare invocation runs the server.
		RunE: serve.RunE,
	}
	root.AddCommand(serve)
	root.AddCommand(newBackupCmd())
	root.AddCommand(newRestoreCmd())
	root.AddCommand(newListBackupsCmd())
	return root
}

// Execute runs the CLI and returns its exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}
