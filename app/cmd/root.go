// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"github.com/annchain/solinterp/vm/ast"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "solinterp",
	Short: "solinterp: a source level smart contract interpreter",
	Long:  `solinterp executes contract programs by walking their typed syntax tree against an in-memory ledger.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		readConfig()
		initLogger()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer DumpStack()
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("Fatal error occurred. Program will exit")
	}
}

func init() {
	// folders
	rootCmd.PersistentFlags().StringP("dir-root", "r", "", "Folder holding config/ and log/")

	// log
	rootCmd.PersistentFlags().Bool("log-stdout", true, "Whether the log will be printed to stdout")
	rootCmd.PersistentFlags().Bool("log-file", false, "Whether the log will be printed to file")
	rootCmd.PersistentFlags().BoolP("log-line-number", "n", false, "Whether the log will contain line number")
	rootCmd.PersistentFlags().StringP("log-level", "v", "info", "Logging verbosity, possible values:[panic, fatal, error, warn, info, debug, trace]")
	rootCmd.PersistentFlags().Bool("multifile-by-level", false, "Output separate log files according to their level")

	// interpreter
	rootCmd.PersistentFlags().String("lang-version", ast.DefaultCompilerVersion, "Language version of the executed programs")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every message the ledger executes")
	rootCmd.PersistentFlags().Bool("trace", false, "Log every statement and expression the interpreter evaluates")
	rootCmd.PersistentFlags().Int("max-call-depth", 0, "Bound on nested calls. 0 keeps the default")

	_ = viper.BindPFlag("dir.root", rootCmd.PersistentFlags().Lookup("dir-root"))

	_ = viper.BindPFlag("log.stdout", rootCmd.PersistentFlags().Lookup("log-stdout"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("log.line_number", rootCmd.PersistentFlags().Lookup("log-line-number"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("multifile_by_level", rootCmd.PersistentFlags().Lookup("multifile-by-level"))

	_ = viper.BindPFlag("interp.version", rootCmd.PersistentFlags().Lookup("lang-version"))
	_ = viper.BindPFlag("interp.debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("interp.trace", rootCmd.PersistentFlags().Lookup("trace"))
	_ = viper.BindPFlag("interp.max_call_depth", rootCmd.PersistentFlags().Lookup("max-call-depth"))

	viper.SetDefault("block.number", 1)
	viper.SetDefault("block.timestamp", 1600000000)
	viper.SetDefault("block.coinbase", "0x0000000000000000000000000000000000000000")
	viper.SetDefault("block.chain_id", 1)
}
