// Package config loads checker settings from a YAML file, the environment and
// command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/staatsoper-tickets/internal/scraper"
)

// FileName is the config file looked up in the home directory
const FileName = ".staatsoper-tickets"

// Config holds everything a run needs besides its flags
type Config struct {
	Telegram Telegram `mapstructure:"telegram"`
	Twitter  Twitter  `mapstructure:"twitter"`
	Venue    Venue    `mapstructure:"venue"`
	HTTP     HTTP     `mapstructure:"http"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Run      Run      `mapstructure:"run"`
}

type Telegram struct {
	Token  string `mapstructure:"token"`
	ChatID string `mapstructure:"chat_id"`
	APIURL string `mapstructure:"api_url"`
}

// Enabled reports whether both token and chat are set
func (t Telegram) Enabled() bool {
	return t.Token != "" && t.ChatID != ""
}

type Twitter struct {
	APIKey       string `mapstructure:"api_key"`
	APISecret    string `mapstructure:"api_secret"`
	AccessToken  string `mapstructure:"access_token"`
	AccessSecret string `mapstructure:"access_secret"`
}

// Venue describes the ticket shop. Phrase lists left empty keep the built-in ones.
type Venue struct {
	Timezone            string           `mapstructure:"timezone"`
	Origin              string           `mapstructure:"origin"`
	ListURL             string           `mapstructure:"list_url"`
	SeatURLTemplate     string           `mapstructure:"seat_url_template"`
	SeatSelectionTitles []scraper.Phrase `mapstructure:"seat_selection_titles"`
	TicketLabels        []scraper.Phrase `mapstructure:"ticket_labels"`
	SoldOutMarkers      []string         `mapstructure:"sold_out_markers"`
}

type HTTP struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`
	UserAgent string        `mapstructure:"user_agent"`
}

type Metrics struct {
	Pushgateway string `mapstructure:"pushgateway"`
	Job         string `mapstructure:"job"`
}

type Run struct {
	// Jitter is the upper bound of a random delay before the run starts
	Jitter time.Duration `mapstructure:"jitter"`
}

// envBindings maps config keys to the environment variables the deployment sets
var envBindings = map[string]string{
	"telegram.token":        "TELEGRAM_TOKEN",
	"telegram.chat_id":      "TELEGRAM_CHAT_ID",
	"twitter.api_key":       "TWITTER_API_KEY",
	"twitter.api_secret":    "TWITTER_API_SECRET",
	"twitter.access_token":  "TWITTER_ACCESS_TOKEN",
	"twitter.access_secret": "TWITTER_ACCESS_SECRET",
	"metrics.pushgateway":   "PUSHGATEWAY_URL",
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_url", "")
	v.SetDefault("twitter.api_key", "")
	v.SetDefault("twitter.api_secret", "")
	v.SetDefault("twitter.access_token", "")
	v.SetDefault("twitter.access_secret", "")
	v.SetDefault("venue.timezone", scraper.DefaultTimezone)
	v.SetDefault("venue.origin", scraper.DefaultOrigin)
	v.SetDefault("venue.list_url", scraper.DefaultOrigin+scraper.DefaultListPath)
	v.SetDefault("venue.seat_url_template", scraper.DefaultSeatURLTemplate)
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.retries", 3)
	v.SetDefault("http.user_agent", "")
	v.SetDefault("metrics.pushgateway", "")
	v.SetDefault("metrics.job", "staatsoper_tickets")
	v.SetDefault("run.jitter", time.Duration(0))
}

// Load reads the config file (cfgFile, or ~/.staatsoper-tickets.yaml when empty) and the
// environment into v and decodes the result. A missing default config file is not an
// error; a missing explicit one is.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("STAATSOPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, "STAATSOPER_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", configPath(v, cfgFile), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

func configPath(v *viper.Viper, cfgFile string) string {
	if cfgFile != "" {
		return filepath.Clean(cfgFile)
	}
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	return "~/" + FileName + ".yaml"
}

// Rules converts the venue settings into scraper rules
func (c *Config) Rules() (scraper.Rules, error) {
	rules := scraper.DefaultRules()

	if c.Venue.Timezone != "" && c.Venue.Timezone != scraper.DefaultTimezone {
		loc, err := time.LoadLocation(c.Venue.Timezone)
		if err != nil {
			return scraper.Rules{}, fmt.Errorf("loading timezone %q: %w", c.Venue.Timezone, err)
		}
		rules.Location = loc
	}
	if c.Venue.Origin != "" {
		rules.Origin = strings.TrimRight(c.Venue.Origin, "/")
	}
	if c.Venue.ListURL != "" {
		rules.ListURL = c.Venue.ListURL
	}
	if c.Venue.SeatURLTemplate != "" {
		rules.SeatURLTemplate = c.Venue.SeatURLTemplate
	}
	if len(c.Venue.SeatSelectionTitles) > 0 {
		rules.SeatSelectionTitles = append([]scraper.Phrase(nil), c.Venue.SeatSelectionTitles...)
	}
	if len(c.Venue.TicketLabels) > 0 {
		rules.TicketLabels = append([]scraper.Phrase(nil), c.Venue.TicketLabels...)
	}
	if len(c.Venue.SoldOutMarkers) > 0 {
		rules.SoldOutMarkers = append([]string(nil), c.Venue.SoldOutMarkers...)
	}

	if err := rules.Validate(); err != nil {
		return scraper.Rules{}, fmt.Errorf("invalid venue config: %w", err)
	}
	return rules, nil
}
