package utilfuncs

import (
	"fmt"
	"os"
)

// PanicIfError stops the program when err is set. Start-up code uses it where
// there is nothing left to recover.
func PanicIfError(err error, message string) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, message)
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
