package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"edms/m/internal/backup"
	"edms/m/internal/config"
	"edms/m/internal/database"
)

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Create a full backup of the database and generated documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.EnsureDirs(); err != nil {
				return err
			}
			db, err := database.Open(database.DSN(cfg.DatabasePath))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			info, err := backup.NewManager(cfg).Create(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup created: %s\n", info.Path)
			return nil
		},
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-name>",
		Short: "Restore the database and documents from a backup",
		Long: "Restore replaces the live database with the contents of a backup " +
			"folder. Stop the server before running this command.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := backup.NewManager(cfg).Restore(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored from %s\n", args[0])
			return nil
		},
	}
}

func newListBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-backups",
		Short: "List available backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			infos, err := backup.NewManager(cfg).List()
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no backups found")
				return nil
			}
			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", info.Name, info.Path)
			}
			return nil
		},
	}
}
