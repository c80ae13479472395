package cmd

import (
	"log"
	"os"

	"github.com/gregriff/stegochat/configs"
	server "github.com/gregriff/stegochat/internal"
	"github.com/spf13/cobra"
)

var embedCmd = &cobra.Command{
	Use:   "embed <carrier> <output.png>",
	Short: "Hide a message in an image file without going through a relay",
	Args:  cobra.ExactArgs(2),
	Run:   embedFile,
}

func init() {
	rootCmd.AddCommand(embedCmd)
	embedCmd.Flags().StringP("message", "m", "", "text to hide")
	embedCmd.Flags().StringP("password", "p", "", "password protecting the text")
	_ = embedCmd.MarkFlagRequired("message")
	_ = embedCmd.MarkFlagRequired("password")
}

func embedFile(cmd *cobra.Command, args []string) {
	message, _ := cmd.Flags().GetString("message")
	password, _ := cmd.Flags().GetString("password")

	concealer, err := server.NewConcealer(configs.Load())
	if err != nil {
		log.Fatal(err.Error())
	}
	carrier, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("error reading carrier: %v", err)
	}

	out, err := concealer.Conceal(carrier, []byte(message), []byte(password))
	if err != nil {
		log.Fatalf("error hiding message: %v", err)
	}
	if err := os.WriteFile(args[1], out, 0o644); err != nil {
		log.Fatalf("error writing %s: %v", args[1], err)
	}
	log.Printf("wrote %s (%d bytes)", args[1], len(out))
}
