// Package migrate implements the eventhub migrate command.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campusworks/eventhub/internal/conf"
	"github.com/campusworks/eventhub/internal/datastore"
	"github.com/campusworks/eventhub/internal/logging"
)

// Command creates the migrate sub-command. Opening the datastore runs the
// schema migration, so this is a connect-and-close round trip.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init()

			ds := datastore.New(settings)
			if ds == nil {
				return fmt.Errorf("no database output enabled in configuration")
			}
			if err := ds.Open(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logging.Info("database schema is up to date")
			return ds.Close()
		},
	}
}
