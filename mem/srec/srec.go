// Package srec loads Motorola S-record memory images and exports them in the
// format read by Verilog's $readmemh.
package srec

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/scarv/xcsim/mem"
)

// Record types understood by the loader.
const (
	TypeHeader  = 0
	TypeData32  = 3
	TypeStart32 = 7
)

// Each record carries one checksum byte after the data, and type-3 records
// carry a 4-byte address. The length field counts both.
const (
	addrBytes32    = 4
	checksumBytes  = 1
	data32Overhead = addrBytes32 + checksumBytes
	dataColumn     = 4 + 2*addrBytes32
)

// Load parses the S-record file at path into a new storage.
func Load(path string) (*mem.Storage, error) {
	s := mem.NewStorage()

	err := LoadInto(path, s)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// LoadInto parses the S-record file at path into an existing storage.
func LoadInto(path string, s *mem.Storage) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open memory image: %w", err)
	}
	defer f.Close()

	err = Parse(f, s)
	if err != nil {
		return fmt.Errorf("parse memory image %s: %w", path, err)
	}

	return nil
}

// Parse reads records line by line and stores their data bytes. Blank lines
// are ignored. Records of unknown type or with broken fields are logged and
// skipped; only read errors abort the parsing.
func Parse(r io.Reader, s *mem.Storage) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := strings.TrimRight(scanner.Text(), "\r\n \t")
		if len(line) == 0 {
			continue
		}

		err := parseRecord(line, s)
		if err != nil {
			log.Printf("srec: line %d: %v, skipped", lineNo, err)
		}
	}

	return scanner.Err()
}

func parseRecord(line string, s *mem.Storage) error {
	if len(line) < 4 {
		return fmt.Errorf("record too short")
	}

	recType, ok := hexNibble(line[1])
	if !ok {
		return fmt.Errorf("bad record type %q", line[1])
	}

	switch recType {
	case TypeHeader, TypeStart32:
		return nil
	case TypeData32:
		return parseData32(line, s)
	default:
		return fmt.Errorf("unknown record type: %d", recType)
	}
}

func parseData32(line string, s *mem.Storage) error {
	length, ok := hexByte(line[2], line[3])
	if !ok {
		return fmt.Errorf("bad record length %q", line[2:4])
	}

	if length < data32Overhead {
		return fmt.Errorf("record length %d too small", length)
	}

	numData := int(length) - data32Overhead
	if len(line) < dataColumn+2*numData {
		return fmt.Errorf("record truncated")
	}

	var addr uint32
	for i := 0; i < addrBytes32; i++ {
		b, ok := hexByte(line[4+2*i], line[5+2*i])
		if !ok {
			return fmt.Errorf("bad address %q", line[4:dataColumn])
		}

		addr = addr<<8 | uint32(b)
	}

	for i := 0; i < numData; i++ {
		col := dataColumn + 2*i

		b, ok := hexByte(line[col], line[col+1])
		if !ok {
			return fmt.Errorf("bad data byte %q", line[col:col+2])
		}

		s.SetByte(addr+uint32(i), b)
	}

	return nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

func hexByte(high, low byte) (byte, bool) {
	h, ok := hexNibble(high)
	if !ok {
		return 0, false
	}

	l, ok := hexNibble(low)
	if !ok {
		return 0, false
	}

	return h<<4 | l, true
}
