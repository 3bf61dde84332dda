package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TextParser reads one "address ip" record per line. Numbers are decimal or
// 0x-prefixed hexadecimal. Blank lines and lines starting with # are skipped.
// The ip column is optional.
type TextParser struct {
	scanner *bufio.Scanner
	line    int
}

// NewTextParser creates a TextParser.
func NewTextParser(reader io.Reader) *TextParser {
	return &TextParser{
		scanner: bufio.NewScanner(reader),
	}
}

// Next returns the next record.
func (p *TextParser) Next() (Record, error) {
	for p.scanner.Scan() {
		p.line++

		line := strings.TrimSpace(p.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return p.parseLine(line)
	}

	if err := p.scanner.Err(); err != nil {
		return Record{}, wrapError(err)
	}

	return Record{}, io.EOF
}

func (p *TextParser) parseLine(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) > 2 {
		return Record{}, wrapError(fmt.Errorf(
			"line %d: %w: %d fields", p.line, ErrInvalidFormat, len(fields),
		))
	}

	var rec Record

	addr, err := strconv.ParseUint(fields[0], 0, 64)
	if err != nil {
		return Record{}, wrapError(fmt.Errorf("line %d: %w", p.line, err))
	}

	rec.Address = addr

	if len(fields) == 2 {
		ip, err := strconv.ParseUint(fields[1], 0, 64)
		if err != nil {
			return Record{}, wrapError(fmt.Errorf("line %d: %w", p.line, err))
		}

		rec.IP = ip
	}

	return rec, nil
}

// WriteText writes records in the format TextParser reads.
func WriteText(w io.Writer, r Reader) (int, error) {
	bw := bufio.NewWriter(w)
	n := 0

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return n, err
		}

		_, err = fmt.Fprintf(bw, "0x%x 0x%x\n", rec.Address, rec.IP)
		if err != nil {
			return n, err
		}

		n++
	}

	return n, bw.Flush()
}
