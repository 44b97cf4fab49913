package dataset

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// maxMapSize is the largest file read through a memory mapping; larger files
// and platforms without mmap fall back to buffered reads.
const maxMapSize = 512 * 1024 * 1024

type mappedFile struct {
	*bytes.Reader
	file  *os.File
	data  []byte
	unmap func([]byte) error
}

func (m *mappedFile) Close() error {
	var err error
	if m.data != nil {
		err = m.unmap(m.data)
		m.data = nil
	}
	if cerr := m.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// openFile opens path for reading, mapping it into memory when possible.
func openFile(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	size := info.Size()
	if size <= 0 || size > maxMapSize {
		return file, nil
	}
	data, err := mmap(file, int(size))
	if err != nil {
		return file, nil
	}
	return &mappedFile{
		Reader: bytes.NewReader(data),
		file:   file,
		data:   data,
		unmap:  munmap,
	}, nil
}
