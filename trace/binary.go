package trace

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const binaryRecordSize = 16

// BinaryParser reads little-endian records of two 64-bit words: the address
// and the instruction pointer.
type BinaryParser struct {
	reader io.Reader
	buffer []byte
}

// NewBinaryParser creates a BinaryParser.
func NewBinaryParser(reader io.Reader) *BinaryParser {
	return &BinaryParser{
		reader: bufio.NewReader(reader),
		buffer: make([]byte, binaryRecordSize),
	}
}

// Next returns the next record.
func (p *BinaryParser) Next() (Record, error) {
	_, err := io.ReadFull(p.reader, p.buffer)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}

		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, wrapError(
				fmt.Errorf("%w: truncated record", ErrInvalidFormat))
		}

		return Record{}, wrapError(err)
	}

	bin := binary.LittleEndian

	return Record{
		Address: bin.Uint64(p.buffer[0:8]),
		IP:      bin.Uint64(p.buffer[8:16]),
	}, nil
}

// WriteBinary writes records in the format BinaryParser reads.
func WriteBinary(w io.Writer, r Reader) (int, error) {
	bw := bufio.NewWriter(w)
	buf := make([]byte, binaryRecordSize)
	n := 0

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return n, err
		}

		binary.LittleEndian.PutUint64(buf[0:8], rec.Address)
		binary.LittleEndian.PutUint64(buf[8:16], rec.IP)

		if _, err := bw.Write(buf); err != nil {
			return n, err
		}

		n++
	}

	return n, bw.Flush()
}
