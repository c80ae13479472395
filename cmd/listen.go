package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gregriff/stegochat/configs"
	"github.com/gregriff/stegochat/internal/client"
	"github.com/gregriff/stegochat/internal/schemas"
	"github.com/gregriff/stegochat/internal/validation"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var listenCmd = &cobra.Command{
	Use:   "listen [nickname]",
	Short: "Register with a relay and print incoming messages, saving images to a directory",
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(_ *cobra.Command, args []string) error {
		nickname := listenNickname(args)
		if err := validation.ValidateNickname(nickname); err != nil {
			return fmt.Errorf("invalid nickname %s (%w)", nickname, err)
		}
		return nil
	},
	Run: listen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().String("dir", ".", "directory to save received images in")
	listenCmd.Flags().StringP("password", "p", "", "extract hidden text from received images with this password")
	listenCmd.Flags().Bool("remember", false, "save the nickname to the config file")
}

func listenNickname(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return viper.GetString("client.nickname")
}

func listen(cmd *cobra.Command, args []string) {
	dir, _ := cmd.Flags().GetString("dir")
	password, _ := cmd.Flags().GetString("password")
	remember, _ := cmd.Flags().GetBool("remember")
	nickname := listenNickname(args)

	if remember {
		if err := configs.PersistNickname(ConfigFile, nickname); err != nil {
			log.Printf("error saving nickname to %s: %v", ConfigFile, err)
		}
	}

	c, err := client.Dial(viper.GetString("client.server"))
	if err != nil {
		log.Fatal(err.Error())
	}
	defer c.Close()

	if err := c.Register(nickname); err != nil {
		log.Fatal(err.Error())
	}
	log.Printf("listening as %s", nickname)

	for {
		e, err := c.Next(0)
		if err != nil {
			log.Fatalf("error reading from relay: %v", err)
		}

		switch ev := e.(type) {
		case schemas.ReceiveMessage:
			fmt.Printf("%s: %s\n", ev.From, ev.Message)
		case schemas.ReceiveImage:
			name := filepath.Join(dir, fmt.Sprintf("%s-%d.png", ev.From, time.Now().UnixNano()))
			if err := os.WriteFile(name, ev.Image, 0o644); err != nil {
				log.Printf("error saving image from %s: %v", ev.From, err)
				continue
			}
			fmt.Printf("%s sent an image (%s), hidden message: %t\n", ev.From, name, ev.HasHiddenMessage)
			if ev.HasHiddenMessage && password != "" {
				if err := c.Extract(ev.Image, password); err != nil {
					log.Printf("error requesting extraction: %v", err)
				}
			}
		case schemas.MessageExtracted:
			if ev.Success {
				fmt.Printf("  hidden: %s\n", ev.Message)
			} else {
				fmt.Printf("  could not extract hidden message: %s\n", ev.Error)
			}
		case schemas.SystemMessage:
			log.Println(ev.Text)
		}
	}
}
