// Package config loads the tool's configuration once at startup.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/crissyfield/supericons/internal/operator"
	"github.com/crissyfield/supericons/internal/patcher"
)

const (
	TransportLocal = "local" // TransportLocal runs helpers on the machine the tool runs on.
	TransportSSH   = "ssh"   // TransportSSH runs helpers on a device reached over SSH.
)

// Config is the resolved configuration.
type Config struct {
	Transport   string        `mapstructure:"transport"`
	SSH         SSHConfig     `mapstructure:"ssh"`
	Helpers     HelpersConfig `mapstructure:"helpers"`
	Device      DeviceConfig  `mapstructure:"device"`
	Icon        IconConfig    `mapstructure:"icon"`
	ScratchRoot string        `mapstructure:"scratch_root"`
}

// SSHConfig describes how to reach the device's SSH server.
type SSHConfig struct {
	Host     string        `mapstructure:"host"`     // Host is usually localhost, forwarded with iproxy.
	Port     string        `mapstructure:"port"`     // Port of the SSH server.
	User     string        `mapstructure:"user"`     // User must be able to run the helpers with elevated rights.
	Password string        `mapstructure:"password"` // Password of User.
	Timeout  time.Duration `mapstructure:"timeout"`  // Timeout for establishing the connection.
}

// HelpersConfig locates the privileged helper binaries.
type HelpersConfig struct {
	Dir string `mapstructure:"dir"` // Dir holds bundled helpers; empty uses cp, mv and rm from PATH.
	Cp  string `mapstructure:"cp"`  // Cp overrides the resolved cp helper.
	Mv  string `mapstructure:"mv"`  // Mv overrides the resolved mv helper.
	Rm  string `mapstructure:"rm"`  // Rm overrides the resolved rm helper.
}

// DeviceConfig describes the target device.
type DeviceConfig struct {
	OSVersion string `mapstructure:"os_version"`
}

// IconConfig configures the installed icon.
type IconConfig struct {
	Name string `mapstructure:"name"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("transport", TransportLocal)
	v.SetDefault("ssh.host", "localhost")
	v.SetDefault("ssh.port", "2222")
	v.SetDefault("ssh.user", "root")
	v.SetDefault("ssh.password", "alpine")
	v.SetDefault("ssh.timeout", 30*time.Second)
	v.SetDefault("helpers.dir", "")
	v.SetDefault("helpers.cp", "")
	v.SetDefault("helpers.mv", "")
	v.SetDefault("helpers.rm", "")
	v.SetDefault("device.os_version", "")
	v.SetDefault("icon.name", patcher.InstalledIconName)
	v.SetDefault("scratch_root", "/tmp")
}

// Load reads the configuration file (cfgFile, or .supericons.yaml in the home directory)
// and the SUPERICONS_* environment into v and decodes the result. A missing default
// configuration file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("supericons")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".supericons")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if (cfgFile != "") || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc()))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if (c.Transport != TransportLocal) && (c.Transport != TransportSSH) {
		return fmt.Errorf("invalid transport [%s]", c.Transport)
	}

	if c.Icon.Name == "" {
		return fmt.Errorf("icon name must not be empty")
	}

	if strings.Contains(c.Icon.Name, "/") || (c.Icon.Name == "Info.plist") || (c.Icon.Name == patcher.BackupName) {
		return fmt.Errorf("invalid icon name [%s]", c.Icon.Name)
	}

	return nil
}

// ResolveHelpers resolves the helper binaries for the configured device. This happens
// once, and the result is handed to the operator. Bundled helpers depend on the OS
// version: unless configured, it is read from the device filesystem fs.
func (c *Config) ResolveHelpers(fs afero.Fs) (operator.Helpers, error) {
	osVersion := c.Device.OSVersion

	if (osVersion == "") && (c.Helpers.Dir != "") {
		detected, err := operator.DetectOSVersion(fs)
		if err != nil {
			return operator.Helpers{}, fmt.Errorf("detect OS version (set device.os_version to skip): %w", err)
		}

		slog.Debug("Detected OS version", slog.String("version", detected))
		osVersion = detected
	}

	helpers, err := operator.ResolveHelpers(c.Helpers.Dir, osVersion)
	if err != nil {
		return operator.Helpers{}, fmt.Errorf("resolve helpers: %w", err)
	}

	return helpers.Override(c.Helpers.Cp, c.Helpers.Mv, c.Helpers.Rm), nil
}
