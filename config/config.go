package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Game    GameConfig    `mapstructure:"game"`
	Session SessionConfig `mapstructure:"session"`
	Score   ScoreConfig   `mapstructure:"score"`
	Monitor MonitorConfig `mapstructure:"monitor"`
}

type GameConfig struct {
	ID         string `mapstructure:"id"`
	HandSize   int    `mapstructure:"hand_size"`
	MinPlayers int    `mapstructure:"min_players"`
	MaxPlayers int    `mapstructure:"max_players"`
}

type SessionConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
	PublicURL     string `mapstructure:"public_url"`
	CodeLength    int    `mapstructure:"code_length"`
	Nickname      string `mapstructure:"nickname"`
}

type ScoreConfig struct {
	Path string `mapstructure:"path"`
}

type MonitorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("game.id", "uno")
	viper.SetDefault("game.hand_size", 7)
	viper.SetDefault("game.min_players", 2)
	viper.SetDefault("game.max_players", 5)
	viper.SetDefault("session.listen_address", ":9780")
	viper.SetDefault("session.code_length", 5)
	viper.SetDefault("score.path", "scores.json")
	viper.SetDefault("monitor.address", ":9781")

	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		// Defaults alone are enough to run; only a broken file is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
