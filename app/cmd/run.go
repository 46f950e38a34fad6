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
	"io"
	"math/big"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/mylog"
	"github.com/annchain/solinterp/vm/abi"
	"github.com/annchain/solinterp/vm/artifacts"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/infer"
	"github.com/annchain/solinterp/vm/interp"
	"github.com/annchain/solinterp/vm/ovm"
	"github.com/annchain/solinterp/vm/soltypes"
	vmtypes "github.com/annchain/solinterp/vm/types"
	"github.com/annchain/solinterp/vm/values"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sender = common.HexToAddress("0x00000000000000000000000000000000000000a1")

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Deploy the sample uint8 counter and increment it",
	Long: `Deploys a counter holding a uint8 that starts at --start and increments it --times times.
Checked arithmetic depends on --lang-version: from 0.8.0 on the overflow reverts with Panic(0x11),
before it the counter wraps around.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetInt64("start")
		times, _ := cmd.Flags().GetInt("times")
		config := interpreterConfig()
		logdir := ""
		if viper.GetBool("log.file") {
			logdir = logDir()
		}
		logger := mylog.InitLogger(logrus.StandardLogger(), logdir, "interp")
		return runCounter(cmd.OutOrStdout(), config, start, times, interp.NewLogVisitor(logger))
	},
}

func init() {
	runCmd.Flags().Int64("start", 250, "Initial counter value")
	runCmd.Flags().Int("times", 10, "Number of increments")
	rootCmd.AddCommand(runCmd)
}

type sampleCounter struct {
	unit  *ast.SourceUnit
	count *ast.VariableDeclaration
	inc   *ast.FunctionDefinition
}

// newSampleCounter builds
//
//	contract Counter {
//	    uint8 public count;
//	    constructor(uint8 start) { count = start; }
//	    function inc() public { count++; }
//	}
func newSampleCounter(version string) *sampleCounter {
	count := ast.NewStateVar("count", soltypes.Uint8, ast.VisibilityPublic, nil)
	ref := func() ast.Expression { return ast.NewIdentifier("count", soltypes.Uint8) }
	ctor := ast.NewFunction("", ast.VisibilityPublic, []*ast.VariableDeclaration{ast.NewVar("start", soltypes.Uint8)}, nil,
		ast.NewExprStmt(ast.NewAssignment("=", ref(), ast.NewIdentifier("start", soltypes.Uint8))))
	ctor.Kind = ast.KindConstructor
	inc := ast.NewFunction("inc", ast.VisibilityPublic, nil, nil, ast.NewExprStmt(ast.NewUnary("++", false, ref())))
	def := &ast.ContractDefinition{
		Name:           "Counter",
		StateVariables: []*ast.VariableDeclaration{count},
		Functions:      []*ast.FunctionDefinition{ctor, inc},
	}
	return &sampleCounter{
		unit:  &ast.SourceUnit{Path: "Counter.sol", Version: version, Contracts: []*ast.ContractDefinition{def}},
		count: count,
		inc:   inc,
	}
}

func runCounter(out io.Writer, config *vmtypes.InterpreterConfig, start int64, times int, visitors ...interp.Visitor) error {
	if start < 0 || start > 255 {
		return errors.Errorf("start %d does not fit uint8", start)
	}
	sample := newSampleCounter(config.Version)
	if err := ast.Link(sample.unit); err != nil {
		return err
	}
	reg, err := artifacts.Compile(sample.unit)
	if err != nil {
		return err
	}
	chain := ovm.NewChain(reg, config, visitors...)
	if err := chain.Fund(sender, big.NewInt(1)); err != nil {
		return err
	}
	addr, res, err := chain.Deploy(sender, "Counter", nil, values.NewInt(start))
	if err != nil {
		return err
	}
	if res.Reverted {
		return errors.Errorf("deploy reverted: %s", describeRevert(res.Data))
	}
	fmt.Fprintf(out, "Counter deployed at %s\n", addr.Hex())

	svc := infer.New(config.Version)
	incData, err := abi.EncodeWithSelector(svc.Selector(sample.inc), nil, nil)
	if err != nil {
		return err
	}
	getData, err := abi.EncodeWithSelector(svc.GetterSelector(sample.count), nil, nil)
	if err != nil {
		return err
	}
	for i := 0; i < times; i++ {
		res, err := chain.Call(&vmtypes.Message{From: sender, To: addr, Data: incData})
		if err != nil {
			return err
		}
		status := "ok"
		if res.Reverted {
			status = "reverted: " + describeRevert(res.Data)
		}
		got, err := chain.Call(&vmtypes.Message{From: sender, To: addr, Data: getData})
		if err != nil {
			return err
		}
		vals, err := chain.DecodeReturn(addr, getData, got.Data)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "inc #%d %s, count = %v\n", i+1, status, values.Load(vals[0]))
	}
	fp, err := chain.Fingerprint()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "state fingerprint %s\n", fp.Hex())
	return nil
}
