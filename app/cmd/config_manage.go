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
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/annchain/solinterp/common/files"
	"github.com/annchain/solinterp/common/utilfuncs"
	vmtypes "github.com/annchain/solinterp/vm/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the merged configuration",
}

var configDumpCmd = &cobra.Command{
	Use:   "dump <file.toml>",
	Short: "Write the merged configuration to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeConfig(args[0])
	},
}

func init() {
	configCmd.AddCommand(configDumpCmd)
	rootCmd.AddCommand(configCmd)
}

// readConfig merges {root}/config/config.toml when it exists, then lets
// SOLINTERP_* environment variables override any key.
func readConfig() {
	configPath := files.FixPrefixPath(viper.GetString("dir.root"), path.Join(ConfigDir, "config.toml"))
	if files.FileExists(configPath) {
		mergeLocalConfig(configPath)
	}
	mergeEnvConfig()
}

func mergeEnvConfig() {
	// env override
	viper.SetEnvPrefix("solinterp")
	viper.AutomaticEnv()
}

func writeConfig(configPath string) error {
	return viper.WriteConfigAs(configPath)
}

func mergeLocalConfig(configPath string) {
	absPath, err := filepath.Abs(configPath)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing config file path: %s", absPath))

	file, err := os.Open(absPath)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on opening config file: %s", absPath))
	defer file.Close()

	viper.SetConfigType("toml")
	err = viper.MergeConfig(file)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on reading config file: %s", absPath))
	logrus.WithField("path", absPath).Debug("config merged")
}

// interpreterConfig builds the interpreter settings from the merged configuration.
func interpreterConfig() *vmtypes.InterpreterConfig {
	return &vmtypes.InterpreterConfig{
		Version:      viper.GetString("interp.version"),
		Debug:        viper.GetBool("interp.debug"),
		Trace:        viper.GetBool("interp.trace"),
		MaxCallDepth: viper.GetInt("interp.max_call_depth"),
		BlockNumber:  viper.GetUint64("block.number"),
		Timestamp:    viper.GetUint64("block.timestamp"),
		Coinbase:     viper.GetString("block.coinbase"),
		ChainID:      viper.GetUint64("block.chain_id"),
	}
}
