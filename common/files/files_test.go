package files

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixPrefixPath(t *testing.T) {
	assert.Equal(t, "config/config.toml", FixPrefixPath("", "config/config.toml"))
	assert.Equal(t, "root/config/config.toml", FixPrefixPath("root", "config/config.toml"))
	assert.Equal(t, "/etc/solinterp.toml", FixPrefixPath("root", "/etc/solinterp.toml"))
}

func TestFileHelpers(t *testing.T) {
	dir, err := ioutil.TempDir("", "files")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, MkDirIfNotExists(nested))
	require.NoError(t, MkDirIfNotExists(nested))
	assert.False(t, FileExists(nested))

	file := filepath.Join(nested, "config.toml")
	assert.False(t, FileExists(file))
	require.NoError(t, ioutil.WriteFile(file, []byte("x = 1\n"), 0644))
	assert.True(t, FileExists(file))
}
