// Package cmd contains the CLI setup and commands exposed to the user
package cmd

import (
	"fmt"
	"log"

	"github.com/gregriff/stegochat/configs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var ConfigFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stegochat",
	Short: "Relays private text and images between nicknamed clients, optionally hiding text inside images",
	Long:  ``,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err.Error())
	}
}

func init() {
	// deferring this allows user to override config path with cli option
	cobra.OnInitialize(func() {
		log.Printf("using config file: %s", ConfigFile)
		configs.InitConfig(ConfigFile)
	})

	configDir := configs.GetConfigDir()
	defaultConfigFilePath := fmt.Sprintf("%s/stegochat.toml", configDir)
	rootCmd.PersistentFlags().StringVar(&ConfigFile, "config", defaultConfigFilePath, "config file")

	rootCmd.PersistentFlags().Bool("debug", false, "Print debugging information")
	rootCmd.PersistentFlags().String("cipher", "", "cipher for hidden messages (xor or aead)")
	rootCmd.PersistentFlags().String("server", "", "relay url used by send and listen")

	// expose to application via viper
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("cipher.name", rootCmd.PersistentFlags().Lookup("cipher"))
	_ = viper.BindPFlag("client.server", rootCmd.PersistentFlags().Lookup("server"))
}
