package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/campusworks/eventhub/cmd/migrate"
	"github.com/campusworks/eventhub/cmd/serve"
	"github.com/campusworks/eventhub/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "eventhub",
		Short: "EventHub campus event management server",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		serve.Command(settings),
		migrate.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}
		// command-line flags take precedence over file and env values
		if err := viper.Unmarshal(settings); err != nil {
			return fmt.Errorf("error syncing flags into settings: %w", err)
		}
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines global flags and binds them to viper.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolP("debug", "d", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().StringP("port", "p", settings.WebServer.Port, "Port for the web server")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		fmt.Printf("Error binding debug flag: %v\n", err)
	}
	if err := viper.BindPFlag("webserver.port", rootCmd.PersistentFlags().Lookup("port")); err != nil {
		fmt.Printf("Error binding port flag: %v\n", err)
	}
}
