package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env              string `yaml:"env" env-default:"local"`
	RegistryPath     string `yaml:"registry_path" env-required:"true"`
	BackupDir        string `yaml:"backup_dir" env-required:"true"`
	PrivilegedChatID int64  `yaml:"privileged_chat_id" env:"IFLY_CHAT_ID" env-required:"true"`
	Session          `yaml:"session"`
	Status           `yaml:"status"`
	Telegram         `yaml:"telegram"`
}

type Session struct {
	Length time.Duration `yaml:"length" env-default:"15m"`
	Grace  time.Duration `yaml:"grace" env-default:"30s"`
}

type Status struct {
	Enabled bool   `yaml:"enabled" env-default:"true"`
	Address string `yaml:"address" env-default:"localhost:8082"`
}

type Telegram struct {
	Timeout time.Duration `yaml:"timeout" env-default:"30s"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

// fetchConfigPath fetches config path from command line flag or environment variable.
// Priority: flag > env > default.
// Default value is empty string.
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
