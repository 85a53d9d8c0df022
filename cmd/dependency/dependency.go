/*
 *     Copyright 2024 The Harness Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package dependency

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	logger "github.com/creditrisk/harness/internal/dflog"
	"github.com/creditrisk/harness/pkg/workpath"
)

// EnvPrefix is the environment prefix of the configuration keys,
// logDir is read from HARNESS_LOGDIR and dataset.path from HARNESS_DATASET_PATH.
const EnvPrefix = "harness"

// InitCommandAndConfig initializes flags binding and common sub cmds.
// config is a pointer to configuration struct.
func InitCommandAndConfig(cmd *cobra.Command, useConfigFile bool, config any) {
	rootName := cmd.Root().Name()
	cobra.OnInitialize(func() { initConfig(useConfigFile, rootName, config) })

	if !cmd.HasParent() {
		// Add common flags.
		flags := cmd.PersistentFlags()
		flags.Bool("console", false, "whether logger output records to the stdout")
		flags.Bool("verbose", false, "whether logger use debug level")
		flags.String("log-dir", "", "log directory of the harness")
		flags.String("dataset-path", "", "path of the labeled csv file")

		if useConfigFile {
			flags.String("config", "", fmt.Sprintf("the path of configuration file with yaml extension name, default is %s, it can also be set by env var: %s", filepath.Join(workpath.DefaultConfigDir, rootName+".yaml"), strings.ToUpper(EnvPrefix+"_config")))
		}

		// Bind common flags.
		for key, flag := range map[string]string{
			"console":      "console",
			"verbose":      "verbose",
			"logDir":       "log-dir",
			"dataset.path": "dataset-path",
		} {
			if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
				panic(err)
			}
		}

		if useConfigFile {
			if err := viper.BindPFlag("config", flags.Lookup("config")); err != nil {
				panic(err)
			}
		}

		// Add common cmds only on root cmd.
		cmd.AddCommand(VersionCmd)
	}
}

// SetupQuitSignalHandler calls handler once on SIGINT or SIGTERM.
func SetupQuitSignalHandler(handler func()) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	var once sync.Once
	go func() {
		for sig := range signals {
			logger.Infof("receive %s signal", sig)
			once.Do(handler)
		}
	}()
}

// initConfig reads in config file and ENV variables if set.
func initConfig(useConfigFile bool, name string, config any) {
	// Use config file and read once.
	if useConfigFile {
		cfgFile := viper.GetString("config")
		if cfgFile != "" {
			// Use config file from the flag.
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath(workpath.DefaultConfigDir)
			viper.SetConfigName(name)
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if useConfigFile {
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				panic(fmt.Errorf("read config file %s: %w", viper.ConfigFileUsed(), err))
			}
		}
	}

	if err := viper.Unmarshal(config, initDecoderConfig); err != nil {
		panic(fmt.Errorf("unmarshal config to struct: %w", err))
	}
}

func initDecoderConfig(dc *mapstructure.DecoderConfig) {
	dc.TagName = "mapstructure"
	dc.WeaklyTypedInput = true
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
