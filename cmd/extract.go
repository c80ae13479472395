package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/gregriff/stegochat/configs"
	server "github.com/gregriff/stegochat/internal"
	"github.com/gregriff/stegochat/internal/conceal"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Recover a hidden message from an image file",
	Args:  cobra.ExactArgs(1),
	Run:   extractFile,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("password", "p", "", "password the text was hidden with")
	_ = extractCmd.MarkFlagRequired("password")
}

func extractFile(cmd *cobra.Command, args []string) {
	password, _ := cmd.Flags().GetString("password")

	concealer, err := server.NewConcealer(configs.Load())
	if err != nil {
		log.Fatal(err.Error())
	}
	img, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("error reading image: %v", err)
	}

	msg, err := concealer.Reveal(img, []byte(password))
	if err != nil {
		log.Fatalf("no message recovered (%s): %v", conceal.Reason(err), err)
	}
	fmt.Println(string(msg))
}
