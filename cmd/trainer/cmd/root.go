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
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/creditrisk/harness/cmd/dependency"
	logger "github.com/creditrisk/harness/internal/dflog"
	"github.com/creditrisk/harness/pkg/workpath"
	"github.com/creditrisk/harness/trainer"
	"github.com/creditrisk/harness/trainer/config"
	"github.com/creditrisk/harness/version"
)

var (
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "trainer",
	Short: "the trainer of the credit risk harness",
	Long: `Trainer loads labeled client records, splits them into training and testing partitions,
tunes the configured classifiers against the testing partition and reports the best trial.`,
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		svr, err := initTrainer(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		dependency.SetupQuitSignalHandler(func() {
			cancel()
			svr.Stop()
		})

		report, err := svr.Serve(ctx)
		if err != nil {
			return err
		}

		printReport(cmd.OutOrStdout(), report)

		// Keep serving metrics until quit.
		if cfg.Metrics.Enable {
			<-ctx.Done()
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func init() {
	// Initialize default trainer config.
	cfg = config.New()

	// Initialize command and config.
	dependency.InitCommandAndConfig(rootCmd, true, cfg)
	rootCmd.AddCommand(classifyCmd)
}

func initWorkpath(cfg *config.Config) (workpath.Workpath, error) {
	var options []workpath.Option
	if cfg.LogDir != "" {
		options = append(options, workpath.WithLogDir(cfg.LogDir))
	}

	if cfg.Storage.DataDir != "" {
		options = append(options, workpath.WithDataDir(cfg.Storage.DataDir))
	}

	return workpath.New(options...)
}

// initTrainer validates the config, initializes logger and returns the server.
func initTrainer(progress io.Writer) (*trainer.Server, error) {
	// Convert config.
	if err := cfg.Convert(); err != nil {
		return nil, err
	}

	// Validate config.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Initialize workpath.
	w, err := initWorkpath(cfg)
	if err != nil {
		return nil, err
	}

	rotateConfig := logger.LogRotateConfig{
		MaxSize:    cfg.LogMaxSize,
		MaxAge:     cfg.LogMaxAge,
		MaxBackups: cfg.LogMaxBackups,
	}

	// Initialize logger.
	if err := logger.InitTrainer(cfg.Verbose, cfg.Console, w.LogDir(), rotateConfig); err != nil {
		return nil, fmt.Errorf("init trainer logger: %w", err)
	}
	logger.Infof("version: %s", version.Version())

	return trainer.New(cfg, w, trainer.WithOutput(progress))
}

func printReport(w io.Writer, report *trainer.Report) {
	fmt.Fprintf(w, "\nbest: %s\n", report.Best)
	fmt.Fprintf(w, "trials: %d, mean: %.4f, stddev: %.4f, max: %.4f\n",
		report.Summary.Trials, report.Summary.Mean, report.Summary.StdDev, report.Summary.Max)
	fmt.Fprintln(w, report.Confusion.Summary)
}
