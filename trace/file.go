package trace

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// FileReader reads a trace file, decompressing .gz and .zst files.
type FileReader struct {
	Reader

	file    *os.File
	closers []func()
}

// Open opens the trace file at path in the given format.
func Open(path, format string) (*FileReader, error) {
	if !IsAvailableFormat(format) {
		return nil, fmt.Errorf("unknown trace format %q", format)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	fr := &FileReader{file: file}

	r, err := fr.wrapDecoder(file, path)
	if err != nil {
		fr.Close()
		return nil, err
	}

	switch format {
	case BinaryFormat:
		fr.Reader = NewBinaryParser(r)
	default:
		fr.Reader = NewTextParser(r)
	}

	return fr, nil
}

func (fr *FileReader) wrapDecoder(r io.Reader, path string) (io.Reader, error) {
	switch filepath.Ext(path) {
	case ".gz":
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("not valid .gzip file: %w", err)
		}

		fr.closers = append(fr.closers, func() { gzipReader.Close() })

		return gzipReader, nil
	case ".zst":
		zstdReader, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("not valid .zst file: %w", err)
		}

		fr.closers = append(fr.closers, zstdReader.Close)

		return zstdReader, nil
	default:
		return r, nil
	}
}

// Close releases the decoders and the file.
func (fr *FileReader) Close() error {
	for i := len(fr.closers) - 1; i >= 0; i-- {
		fr.closers[i]()
	}

	fr.closers = nil

	return fr.file.Close()
}
