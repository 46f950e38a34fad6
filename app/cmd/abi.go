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
	"math/big"
	"strconv"
	"strings"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/math"
	"github.com/annchain/solinterp/vm/abi"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/annchain/solinterp/vm/values"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var abiCmd = &cobra.Command{
	Use:   "abi",
	Short: "Encode and decode ABI data",
}

var selectorCmd = &cobra.Command{
	Use:   "selector <signature>",
	Short: "Print the 4 byte selector of a canonical signature, e.g. transfer(address,uint256)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel := abi.Selector(args[0])
		fmt.Fprintln(cmd.OutOrStdout(), common.Encode(sel[:]))
		return nil
	},
}

var encodeCmd = &cobra.Command{
	Use:   "encode <value>...",
	Short: "ABI encode elementary values of the given --types",
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := soltypes.ParseList(abiTypes)
		if err != nil {
			return errors.Wrap(err, "parsing --types")
		}
		data, err := encodeArgs(types, args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), common.Encode(data))
		return nil
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode ABI data of the given --types",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := soltypes.ParseList(abiTypes)
		if err != nil {
			return errors.Wrap(err, "parsing --types")
		}
		data, err := common.DecodeHex(args[0])
		if err != nil {
			return err
		}
		vals, err := abi.Decode(data, types, 0, abi.Target{Mem: values.NewMemory()})
		if err != nil {
			return err
		}
		for i, v := range vals {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", types[i], values.Load(v))
		}
		return nil
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert <hex>",
	Short: "Explain a revert payload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := common.DecodeHex(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), describeRevert(data))
		return nil
	},
}

var abiTypes string

func init() {
	encodeCmd.Flags().StringVarP(&abiTypes, "types", "t", "", "Comma separated type list, e.g. uint256,address")
	decodeCmd.Flags().StringVarP(&abiTypes, "types", "t", "", "Comma separated type list, e.g. uint256,address")
	abiCmd.AddCommand(selectorCmd, encodeCmd, decodeCmd, revertCmd)
	rootCmd.AddCommand(abiCmd)
}

func describeRevert(data []byte) string {
	if len(data) == 0 {
		return "empty revert"
	}
	msg, code, ok := abi.DecodeRevert(data)
	switch {
	case !ok:
		return "custom error " + common.Encode(data)
	case code != nil:
		return fmt.Sprintf("Panic(0x%x)", code)
	default:
		return fmt.Sprintf("Error(%q)", string(msg))
	}
}

func encodeArgs(types []soltypes.Type, args []string) ([]byte, error) {
	if len(types) != len(args) {
		return nil, errors.Errorf("%d types but %d values", len(types), len(args))
	}
	vals := make([]values.Value, len(args))
	for i, arg := range args {
		v, err := parseValue(types[i], arg)
		if err != nil {
			return nil, errors.Wrapf(err, "value %d", i)
		}
		vals[i] = v
	}
	return abi.Encode(vals, types)
}

// parseValue reads the command line form of an elementary value.
func parseValue(t soltypes.Type, s string) (values.Value, error) {
	switch x := t.(type) {
	case soltypes.IntType:
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, errors.Errorf("invalid integer %q", s)
		}
		if min, max := math.IntRange(x.Bits, x.Signed); n.Cmp(min) < 0 || n.Cmp(max) > 0 {
			return nil, errors.Errorf("%s does not fit %s", s, x)
		}
		return values.Int{V: n}, nil
	case soltypes.BoolType:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, err
		}
		return values.Bool(b), nil
	case soltypes.AddressType:
		b, err := common.DecodeHex(s)
		if err != nil || len(b) != common.AddressLength {
			return nil, errors.Errorf("invalid address %q", s)
		}
		return values.NewAddress(common.BytesToAddress(b)), nil
	case soltypes.FixedBytesType:
		b, err := common.DecodeHex(s)
		if err != nil {
			return nil, err
		}
		if len(b) > x.Size {
			return nil, errors.Errorf("%d bytes do not fit %s", len(b), x)
		}
		out := make([]byte, x.Size)
		copy(out, b)
		return values.FixedBytes(out), nil
	case soltypes.BytesType:
		b, err := common.DecodeHex(s)
		if err != nil {
			return nil, err
		}
		return values.Bytes(b), nil
	case soltypes.StringType:
		return values.Bytes(s), nil
	}
	return nil, errors.Errorf("%s values cannot be given on the command line", strings.TrimSpace(t.String()))
}
