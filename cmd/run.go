package cmd

import (
	"fmt"

	"github.com/gregriff/stegochat/configs"
	server "github.com/gregriff/stegochat/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the stegochat relay",
	Args:  cobra.MaximumNArgs(0),
	PreRunE: func(_ *cobra.Command, _ []string) error {
		s := configs.Load()
		if s.Port < 1 || s.Port > 65535 {
			return fmt.Errorf("invalid port %d", s.Port)
		}
		if p := s.Relay.DuplicatePolicy; p != "replace" && p != "reject" {
			return fmt.Errorf("relay.duplicate-policy must be replace or reject, got %q", p)
		}
		return nil
	},
	Run: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("host", "", "interface to listen on")
	runCmd.Flags().Int("port", 0, "port to listen on")
	runCmd.Flags().Bool("audit", false, "record relay event counts to sqlite")
	_ = viper.BindPFlag("host", runCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("port", runCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("audit.enabled", runCmd.Flags().Lookup("audit"))
}

func runServer(_ *cobra.Command, _ []string) {
	server.CreateAndListen(configs.Load())
}
