package cmd

import (
	"github.com/rs/zerolog/log"

	"gitlab.com/sfr-tokyo/economy_api/cmd/commands"
	"gitlab.com/sfr-tokyo/economy_api/config"
	"gitlab.com/sfr-tokyo/economy_api/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the token economy service and listen for api requests",
	Long:  `Connect to the configured database and start the http api together with the cron sweeps that drive collections, voting deadlines and reward distribution`,
	Run: func(cmd *cobra.Command, args []string) {
		// load server configuration from server
		log.Debug().Msg("Loading server configuration")
		if viper.ConfigFileUsed() != "" {
			log.Debug().Str("section", "init").Str("path", viper.ConfigFileUsed()).Msg("Configuration file loaded")
		}
		cfg := config.LoadConfig(viper.GetViper())
		// Running migrations
		log.Debug().Msg("Running migrations")
		commands.Migrate(cfg)

		// start a new server
		log.Debug().Str("section", "init").Msg("Starting new server instance")
		srv := server.NewServer(cfg)
		// listen for new messages
		log.Info().Str("section", "init").Msg("Listening for incoming events")
		srv.Listen()
	},
}
