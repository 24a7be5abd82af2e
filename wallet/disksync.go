package wallet

import (
	"fmt"
	"os"
)

// CheckCreateDir makes sure path is a directory, creating it and its
// parents when missing.
func CheckCreateDir(path string) error {
	fi, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, 0700); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
		return nil

	case err != nil:
		return fmt.Errorf("error checking directory: %w", err)

	case !fi.IsDir():
		return fmt.Errorf("%s is not a directory", path)
	}

	return nil
}
