package device

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Config is the sushigram.json file read by the Cardputer from the root of
// its SD card. Field order is the order written to disk.
type Config struct {
	SSID      string `json:"ssid"`
	Password  string `json:"password"`
	ServerIP  string `json:"server_ip"`
	Phone     string `json:"phone"`
	UserToken string `json:"user_token"`
}

// Marshal renders the config with four space indentation and a trailing
// newline. HTML escaping is off so passwords containing & < > stay readable
// for the device parser.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")

	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write replaces any existing file at path with cfg.
func Write(path string, cfg Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode device config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("could not write to file '%s': %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"path":   path,
		"server": cfg.ServerIP,
	}).Debugln("Device config written")

	return nil
}

// Read loads a previously written device config.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return &cfg, nil
}

// WriteCaptcha stores the captcha picture so the user can open it.
func WriteCaptcha(path string, img []byte) error {
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("could not write captcha image '%s': %w", path, err)
	}
	return nil
}
