package files

import (
	"os"
	"path"
)

func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

func MkDirIfNotExists(dir string) error {
	_, err := os.Stat(dir)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, os.ModePerm)
}

// FixPrefixPath joins suffix below potentialRoot unless suffix is absolute or there is no root.
func FixPrefixPath(potentialRoot string, suffix string) (jointPath string) {
	if potentialRoot == "" || path.IsAbs(suffix) {
		return suffix
	}
	return path.Join(potentialRoot, suffix)
}
