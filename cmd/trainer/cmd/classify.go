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

	"github.com/spf13/cobra"

	"github.com/creditrisk/harness/trainer/storage"
)

var (
	classifyInput  string
	classifyHeader bool
)

// classifyCmd tunes the trials, then classifies unlabeled records with the best one.
var classifyCmd = &cobra.Command{
	Use:               "classify",
	Short:             "classify unlabeled records with the best trial",
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		svr, err := initTrainer(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer svr.Stop()

		report, err := svr.Serve(context.Background())
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), report)

		r, err := storage.Open(classifyInput, classifyHeader, svr.Dataset().Schema().FeatureNames()...)
		if err != nil {
			return err
		}
		defer r.Close()

		classified, err := svr.Classify(r)
		if err != nil {
			return err
		}

		for _, c := range classified {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}

		return nil
	},
}

func init() {
	flags := classifyCmd.Flags()
	flags.StringVarP(&classifyInput, "input", "i", "", "path of the unlabeled csv file")
	flags.BoolVar(&classifyHeader, "header", false, "whether the first line of the input holds the column names")
	if err := classifyCmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
}
