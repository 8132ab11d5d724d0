// Package config loads per-venue client configuration from file and
// environment.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Default client parameters
const (
	DefaultHTTPTimeout = 15 * time.Second
	envPrefix          = "UNIFEX"
)

// ErrExchangeNotFound is returned when the named venue has no config entry
var ErrExchangeNotFound = errors.New("exchange config not found")

// Credentials holds one venue's API key pair. Values may also arrive from
// the environment as UNIFEX_<NAME>_APIKEY / UNIFEX_<NAME>_APISECRET.
type Credentials struct {
	Key    string `mapstructure:"apiKey"`
	Secret string `mapstructure:"apiSecret"`
}

// Exchange is one venue's client configuration.
type Exchange struct {
	Name         string        `mapstructure:"name"`
	Enabled      bool          `mapstructure:"enabled"`
	Verbose      bool          `mapstructure:"verbose"`
	HTTPTimeout  time.Duration `mapstructure:"httpTimeout"`
	RESTEndpoint string        `mapstructure:"restEndpoint"`
	UseTestnet   bool          `mapstructure:"useTestnet"`
	Credentials  Credentials   `mapstructure:"credentials"`
}

// Config is the full client configuration.
type Config struct {
	Exchanges []Exchange `mapstructure:"exchanges"`
}

// Load reads a YAML or JSON config file, applies environment overrides and
// fills in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	for i := range c.Exchanges {
		e := &c.Exchanges[i]
		if e.HTTPTimeout <= 0 {
			e.HTTPTimeout = DefaultHTTPTimeout
		}
		applyEnvCredentials(e)
	}
	return &c, nil
}

// Exchange returns the named venue's configuration, case insensitive.
func (c *Config) Exchange(name string) (*Exchange, error) {
	for i := range c.Exchanges {
		if strings.EqualFold(c.Exchanges[i].Name, name) {
			return &c.Exchanges[i], nil
		}
	}
	return nil, errors.Wrap(ErrExchangeNotFound, name)
}

func applyEnvCredentials(e *Exchange) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix + "_" + strings.ToUpper(e.Name))
	v.AutomaticEnv()
	if key := v.GetString("APIKEY"); key != "" {
		e.Credentials.Key = key
	}
	if secret := v.GetString("APISECRET"); secret != "" {
		e.Credentials.Secret = secret
	}
}
