package config

import (
	"time"
)

// Config represents the tool configuration. It only tunes how the tool
// talks to the server and where it writes; the device file itself is
// assembled from the interactive answers.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type APIConfig struct {
	Version   int           `mapstructure:"version" default:"10"`
	Timeout   time.Duration `mapstructure:"timeout" default:"30s"`
	UserAgent string        `mapstructure:"user_agent"`
}

type OutputConfig struct {
	ConfigFile  string `mapstructure:"config_file" default:"sushigram.json"`
	CaptchaFile string `mapstructure:"captcha_file" default:"captcha.png"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" default:"warn"`
	Format string `mapstructure:"format" default:"text"`
	File   string `mapstructure:"file"` // Optional rotating log file

	MaxSize    int `mapstructure:"max_size" default:"5"` // megabytes
	MaxBackups int `mapstructure:"max_backups" default:"3"`
}

func (c *Config) GetAPIVersion() int {
	return c.API.Version
}

func (c *Config) GetTimeout() time.Duration {
	return c.API.Timeout
}

func (c *Config) GetConfigFile() string {
	return c.Output.ConfigFile
}

func (c *Config) GetCaptchaFile() string {
	return c.Output.CaptchaFile
}

func (c *Config) HasLogFile() bool {
	return len(c.Logging.File) > 0
}
