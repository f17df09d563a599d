// Package config wires defaults, environment variables and the TOML file into viper.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
	"github.com/trawl-media/trawl/constant"
	"github.com/trawl-media/trawl/filesystem"
	"github.com/trawl-media/trawl/where"
)

// EnvKeyReplacer maps config keys to environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup loads the configuration. A missing config file is not an error.
func Setup() error {
	viper.SetConfigName(constant.Trawl)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Trawl)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}
