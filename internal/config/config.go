package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultAPIVersion  = 10
	DefaultConfigFile  = "sushigram.json"
	DefaultCaptchaFile = "captcha.png"
)

func DefaultConfig() *Config {

	v := viper.New()

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("error unmarshaling default config: %v", err)
	}

	return &config
}

// Load loads the configuration from defaults, an optional config file,
// a .env file and SUSHIGRAM_* environment variables.
func Load(configFile string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	setupViperConfig(v, configFile)
	bindEnvironmentVariables(v)

	config, err := readAndUnmarshalConfig(v)
	if err != nil {
		return nil, err
	}

	if err := setupLogging(config, v); err != nil {
		return nil, err
	}

	return config, nil
}

// loadEnvFile loads the .env file if it exists
func loadEnvFile() error {
	if err := gotenv.Load(); err != nil {
		// .env file not found, that's okay - continue with other sources
		if !os.IsNotExist(err) {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}
	return nil
}

func setupViperConfig(v *viper.Viper, configFile string) {
	v.SetConfigName("configtool")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "sushigram"))
	}

	if len(configFile) > 0 {
		v.SetConfigFile(configFile)
	}

	setDefaults(v)

	v.SetEnvPrefix("SUSHIGRAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
}

func bindEnvironmentVariables(v *viper.Viper) {
	v.BindEnv("api.version", "SUSHIGRAM_API_VERSION")
	v.BindEnv("api.timeout", "SUSHIGRAM_API_TIMEOUT")
	v.BindEnv("api.user_agent", "SUSHIGRAM_API_USER_AGENT")

	v.BindEnv("output.config_file", "SUSHIGRAM_OUTPUT_CONFIG_FILE")
	v.BindEnv("output.captcha_file", "SUSHIGRAM_OUTPUT_CAPTCHA_FILE")

	v.BindEnv("logging.level", "SUSHIGRAM_LOGGING_LEVEL")
	v.BindEnv("logging.format", "SUSHIGRAM_LOGGING_FORMAT")
	v.BindEnv("logging.file", "SUSHIGRAM_LOGGING_FILE")
}

func readAndUnmarshalConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.API.Version <= 0 {
		return nil, fmt.Errorf("invalid api version: %d", config.API.Version)
	}

	if config.API.Timeout <= 0 {
		return nil, fmt.Errorf("invalid api timeout: %s", config.API.Timeout)
	}

	return &config, nil
}

// setupLogging configures logrus from the logging section. Diagnostics go
// to stdout next to the prompts, and to a rotating file when one is set.
func setupLogging(config *Config, v *viper.Viper) error {
	logrusLevel, err := logrus.ParseLevel(config.Logging.Level)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}

	logrus.SetLevel(logrusLevel)

	switch strings.ToLower(config.Logging.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		logrus.WithFields(logrus.Fields{
			"format": config.Logging.Format,
		}).Warn("Unknown log format")
	}

	logrus.SetOutput(config.logOutput(os.Stdout))

	if logrusLevel >= logrus.DebugLevel {
		for key, value := range v.AllSettings() {
			logrus.Debugf("Config '%s': %v\n", key, value)
		}
	}

	return nil
}

func (c *Config) logOutput(console io.Writer) io.Writer {
	if !c.HasLogFile() {
		return console
	}

	return io.MultiWriter(console, &lumberjack.Logger{
		Filename:   c.Logging.File,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
	})
}

func setDefaults(v *viper.Viper) {

	// API defaults
	v.SetDefault("api.version", DefaultAPIVersion)
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.user_agent", "")

	// Output defaults, relative to the working directory
	v.SetDefault("output.config_file", DefaultConfigFile)
	v.SetDefault("output.captcha_file", DefaultCaptchaFile)

	// Logging defaults
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", 5)
	v.SetDefault("logging.max_backups", 3)
}
