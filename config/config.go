// vidtrack/config/config.go
package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	BackendURL      string        `mapstructure:"BACKEND_URL"`
	BackendToken    string        `mapstructure:"BACKEND_TOKEN"`
	PollInterval    time.Duration `mapstructure:"POLL_INTERVAL"`
	MaxPollDuration time.Duration `mapstructure:"MAX_POLL_DURATION"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	MaxResponseSize int64         `mapstructure:"MAX_RESPONSE_SIZE"`
	Port            string        `mapstructure:"PORT"`
	AuthEnable      bool          `mapstructure:"AUTH_ENABLE"`
	AuthKey         string        `mapstructure:"AUTH_KEY"`
	JSONLogs        bool          `mapstructure:"JSON_LOGS"`
}

// stringToDurationHookFunc is a custom Viper hook for parsing Go's duration strings.
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return time.ParseDuration(data.(string))
	}
}

// stringToByteSizeHookFunc is a custom Viper hook for parsing human-readable size strings.
func stringToByteSizeHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Int64 {
			return data, nil
		}

		var size datasize.ByteSize
		err := size.UnmarshalText([]byte(data.(string)))
		if err != nil {
			// Not a valid size string, let other parsers handle it.
			return data, nil
		}

		return int64(size.Bytes()), nil
	}
}

func Load() (*Config, error) {
	vp := viper.New()

	// Defaults are strings so the hooks handle them.
	vp.SetDefault("BACKEND_URL", "http://localhost:8000")
	vp.SetDefault("BACKEND_TOKEN", "")
	vp.SetDefault("POLL_INTERVAL", "5s")
	vp.SetDefault("MAX_POLL_DURATION", "0s")
	vp.SetDefault("REQUEST_TIMEOUT", "30s")
	vp.SetDefault("MAX_RESPONSE_SIZE", "10MB")
	vp.SetDefault("PORT", "8080")
	vp.SetDefault("AUTH_ENABLE", false)
	vp.SetDefault("AUTH_KEY", "123456")
	vp.SetDefault("JSON_LOGS", false)

	vp.SetConfigName("vidtrack_config")
	vp.SetConfigType("yaml")
	vp.AddConfigPath(".")
	vp.AddConfigPath("/etc/vidtrack/")

	if err := vp.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	vp.SetEnvPrefix("VIDTRACK")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	var cfg Config
	// The first hook that matches the target type wins.
	err := vp.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			stringToDurationHookFunc(),
			stringToByteSizeHookFunc(),
		),
	))
	if err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the controller cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return errors.New("BACKEND_URL must not be empty")
	}
	if c.PollInterval <= 0 {
		return errors.Newf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.MaxPollDuration < 0 {
		return errors.Newf("MAX_POLL_DURATION must not be negative, got %s", c.MaxPollDuration)
	}
	if c.RequestTimeout < 0 {
		return errors.Newf("REQUEST_TIMEOUT must not be negative, got %s", c.RequestTimeout)
	}
	if c.MaxResponseSize <= 0 {
		return errors.Newf("MAX_RESPONSE_SIZE must be positive, got %d", c.MaxResponseSize)
	}
	return nil
}
