//go:build !unix

package dataset

import (
	"errors"
	"os"
)

func mmap(*os.File, int) ([]byte, error) {
	return nil, errors.New("memory mapping not supported")
}

func munmap([]byte) error {
	return nil
}
