package configs

import (
	"time"

	"github.com/spf13/viper"
)

// Settings is the resolved configuration of a relay process.
type Settings struct {
	Debug bool
	Host  string
	Port  int

	Relay  RelaySettings
	Cipher CipherSettings
	Audit  AuditSettings

	APIEnabled bool

	// relay url and nickname for the client commands
	Server   string
	Nickname string
}

type RelaySettings struct {
	MaxImageBytes      int
	MaxPixels          int
	MaxFrameBytes      int
	MaxConcurrentCodec int64
	DuplicatePolicy    string
	Acknowledge        bool
	OutboundBuffer     int
	WriteTimeout       time.Duration
}

type CipherSettings struct {
	Name       string
	Iterations int
}

type AuditSettings struct {
	Enabled bool
	Path    string
}

// Load reads the current viper state. InitConfig or SetDefaults must run first.
func Load() Settings {
	return Settings{
		Debug: viper.GetBool("debug"),
		Host:  viper.GetString("host"),
		Port:  viper.GetInt("port"),
		Relay: RelaySettings{
			MaxImageBytes:      viper.GetInt("relay.max-image-bytes"),
			MaxPixels:          viper.GetInt("relay.max-pixels"),
			MaxFrameBytes:      viper.GetInt("relay.max-frame-bytes"),
			MaxConcurrentCodec: viper.GetInt64("relay.max-concurrent-codec"),
			DuplicatePolicy:    viper.GetString("relay.duplicate-policy"),
			Acknowledge:        viper.GetBool("relay.acknowledge"),
			OutboundBuffer:     viper.GetInt("relay.outbound-buffer"),
			WriteTimeout:       viper.GetDuration("relay.write-timeout"),
		},
		Cipher: CipherSettings{
			Name:       viper.GetString("cipher.name"),
			Iterations: viper.GetInt("cipher.pbkdf2-iterations"),
		},
		Audit: AuditSettings{
			Enabled: viper.GetBool("audit.enabled"),
			Path:    viper.GetString("audit.path"),
		},
		APIEnabled: viper.GetBool("api.enabled"),
		Server:     viper.GetString("client.server"),
		Nickname:   viper.GetString("client.nickname"),
	}
}
