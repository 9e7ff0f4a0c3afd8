package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// RedditConfig holds the script-app credentials for the forum
type RedditConfig struct {
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	UserAgent    string `toml:"user_agent"`
	Subreddit    string `toml:"subreddit"`
}

// SpotifyConfig holds the client-credentials pair for the music service
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// BotConfig holds the runtime settings for the ingest loop
type BotConfig struct {
	Database  string `toml:"database"`
	Listen    string `toml:"listen"`
	PollLimit int    `toml:"poll_limit"`
}

// Config represents the top-level configuration
type Config struct {
	Reddit  RedditConfig  `toml:"reddit"`
	Spotify SpotifyConfig `toml:"spotify"`
	Bot     BotConfig     `toml:"bot"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	if config.Bot.Database == "" {
		config.Bot.Database = "spotinfo.db"
	}
	if config.Bot.PollLimit == 0 {
		config.Bot.PollLimit = 100
	}

	return &config, nil
}

func (c *Config) validate() error {
	var missing []string

	if c.Reddit.Username == "" {
		missing = append(missing, "reddit.username")
	}
	if c.Reddit.Password == "" {
		missing = append(missing, "reddit.password")
	}
	if c.Reddit.ClientID == "" {
		missing = append(missing, "reddit.client_id")
	}
	if c.Reddit.ClientSecret == "" {
		missing = append(missing, "reddit.client_secret")
	}
	if c.Reddit.Subreddit == "" {
		missing = append(missing, "reddit.subreddit")
	}
	if c.Spotify.ClientID == "" {
		missing = append(missing, "spotify.client_id")
	}
	if c.Spotify.ClientSecret == "" {
		missing = append(missing, "spotify.client_secret")
	}

	if len(missing) > 0 {
		return fmt.Errorf("config is missing required fields: %v", missing)
	}

	return nil
}
