package cli

import (
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"edms/m/internal/api"
	"edms/m/internal/config"
	"edms/m/internal/database"
	"edms/m/internal/migrations"
	"edms/m/internal/seed"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.EnsureDirs(); err != nil {
				return err
			}

			db := database.Connect(database.DSN(cfg.DatabasePath))
			defer db.Close()
			migrations.Run(db)

			statesCSV := os.Getenv("EDMS_STATES_CSV")
			if statesCSV == "" {
				statesCSV = "assets/states.csv"
			}
			seed.LoadStates(db, statesCSV)

			handler := api.New(db, cfg)
			log.Printf("listening on :%s", cfg.HTTPPort)
			return http.ListenAndServe(":"+cfg.HTTPPort, handler.Router())
		},
	}
}
