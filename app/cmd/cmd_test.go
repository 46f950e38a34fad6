package cmd

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/vm/abi"
	"github.com/annchain/solinterp/vm/soltypes"
	vmtypes "github.com/annchain/solinterp/vm/types"
	"github.com/annchain/solinterp/vm/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	v, err := parseValue(soltypes.Uint8, "0xff")
	require.NoError(t, err)
	n, _ := values.AsInt(v)
	assert.Equal(t, int64(255), n.Int64())

	_, err = parseValue(soltypes.Uint8, "256")
	assert.Error(t, err)
	_, err = parseValue(soltypes.Int256, "-5")
	assert.NoError(t, err)

	v, err = parseValue(soltypes.Bytes4, "0x01")
	require.NoError(t, err)
	assert.Equal(t, values.FixedBytes{1, 0, 0, 0}, v)

	_, err = parseValue(soltypes.Address, "0x1234")
	assert.Error(t, err)
	_, err = parseValue(soltypes.ArrayType{Elem: soltypes.Uint256}, "1")
	assert.Error(t, err)
}

func TestEncodeArgs(t *testing.T) {
	types, err := soltypes.ParseList("uint256,bool")
	require.NoError(t, err)
	data, err := encodeArgs(types, []string{"1", "true"})
	require.NoError(t, err)
	require.Len(t, data, 64)
	assert.Equal(t, byte(1), data[31])
	assert.Equal(t, byte(1), data[63])

	_, err = encodeArgs(types, []string{"1"})
	assert.Error(t, err)
}

func TestDescribeRevert(t *testing.T) {
	assert.Equal(t, "empty revert", describeRevert(nil))
	assert.Equal(t, "Panic(0x11)", describeRevert(abi.EncodePanic(0x11)))
	assert.Equal(t, `Error("nope")`, describeRevert(abi.EncodeError([]byte("nope"))))
	assert.Equal(t, "custom error 0x01020304", describeRevert([]byte{1, 2, 3, 4}))
}

func TestRunCounter(t *testing.T) {
	var out bytes.Buffer
	err := runCounter(&out, &vmtypes.InterpreterConfig{Version: "0.8.19"}, 254, 3)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "inc #1 ok, count = 255", lines[1])
	assert.Equal(t, "inc #2 reverted: Panic(0x11), count = 255", lines[2])

	out.Reset()
	err = runCounter(&out, &vmtypes.InterpreterConfig{Version: "0.7.6"}, 254, 2)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "inc #2 ok, count = 0")

	assert.Error(t, runCounter(&out, &vmtypes.InterpreterConfig{Version: "0.8.19"}, 300, 1))
}

func TestSelectorCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOutput(&out)
	rootCmd.SetArgs([]string{"abi", "selector", "transfer(address,uint256)", "--log-stdout=false"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, common.Encode([]byte{0xa9, 0x05, 0x9c, 0xbb}), strings.TrimSpace(out.String()))
}

func TestConfigDump(t *testing.T) {
	target := filepath.Join(t.TempDir(), "dump.toml")
	rootCmd.SetOutput(ioutil.Discard)
	rootCmd.SetArgs([]string{"config", "dump", target, "--log-stdout=false", "--lang-version", "0.7.6"})
	require.NoError(t, rootCmd.Execute())
	data, err := ioutil.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "0.7.6")
	assert.Equal(t, "0.7.6", interpreterConfig().Version)
}
