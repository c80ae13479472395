package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gregriff/stegochat/internal/client"
	"github.com/gregriff/stegochat/internal/schemas"
	"github.com/gregriff/stegochat/internal/validation"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sendCmd = &cobra.Command{
	Use:   "send <recipient> [message]",
	Short: "Register with a relay and send one message or image",
	Args:  cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		image, _ := cmd.Flags().GetString("image")
		if len(args) < 2 && image == "" {
			return errors.New("nothing to send: give a message or --image")
		}
		nickname := viper.GetString("client.nickname")
		if err := validation.ValidateNickname(nickname); err != nil {
			return fmt.Errorf("invalid nickname %s (%w)", nickname, err)
		}
		return nil
	},
	Run: sendOnce,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().String("as", "", "nickname to register as (defaults to client.nickname)")
	_ = viper.BindPFlag("client.nickname", sendCmd.Flags().Lookup("as"))
	sendCmd.Flags().String("image", "", "image file to send")
	sendCmd.Flags().String("hidden", "", "text to hide in the image")
	sendCmd.Flags().StringP("password", "p", "", "password protecting the hidden text")
	sendCmd.Flags().Duration("wait", 5*time.Second, "how long to wait for relay notices")
}

func sendOnce(cmd *cobra.Command, args []string) {
	nickname := viper.GetString("client.nickname")
	imagePath, _ := cmd.Flags().GetString("image")
	hidden, _ := cmd.Flags().GetString("hidden")
	password, _ := cmd.Flags().GetString("password")
	wait, _ := cmd.Flags().GetDuration("wait")
	recipient := args[0]

	c, err := client.Dial(viper.GetString("client.server"))
	if err != nil {
		log.Fatal(err.Error())
	}
	defer c.Close()

	if err := c.Register(nickname); err != nil {
		log.Fatal(err.Error())
	}

	if imagePath != "" {
		img, rErr := os.ReadFile(imagePath)
		if rErr != nil {
			log.Fatalf("error reading image: %v", rErr)
		}
		err = c.SendImage(nickname, recipient, img, hidden, password)
	} else {
		err = c.SendText(nickname, recipient, args[1])
	}
	if err != nil {
		log.Fatal(err.Error())
	}

	// print notices until the relay goes quiet
	for {
		e, err := c.Next(wait)
		if errors.Is(err, client.ErrTimeout) {
			return
		}
		if err != nil {
			log.Fatalf("error reading from relay: %v", err)
		}
		if notice, ok := e.(schemas.SystemMessage); ok {
			log.Println(notice.Text)
		}
	}
}
