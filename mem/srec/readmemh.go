package srec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/scarv/xcsim/mem"
)

// DumpReadMemH writes the storage content to path in $readmemh format.
func DumpReadMemH(path string, s *mem.Storage, wordSize int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create readmemh file: %w", err)
	}

	w := bufio.NewWriter(f)

	err = WriteReadMemH(w, s, wordSize)
	if err == nil {
		err = w.Flush()
	}

	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}

	return err
}

// WriteReadMemH writes one hex value per line, in ascending address order.
// Each value holds wordSize bytes in little-endian order and addresses count
// words. An "@address" marker precedes the first value and every value whose
// word address does not follow the previous one. Bytes that were never
// written inside a partially written word are emitted as zero.
func WriteReadMemH(w io.Writer, s *mem.Storage, wordSize int) error {
	if wordSize <= 0 || wordSize > 8 {
		return fmt.Errorf("unsupported word size %d", wordSize)
	}

	size := uint64(wordSize)
	first := true

	var prevWord uint64

	for _, addr := range s.Addresses() {
		word := uint64(addr) / size
		if !first && word == prevWord {
			continue
		}

		if first || word != prevWord+1 {
			_, err := fmt.Fprintf(w, "@%x\n", word)
			if err != nil {
				return err
			}
		}

		_, err := fmt.Fprintf(w, "%0*x\n", 2*wordSize, readWord(s, word*size, wordSize))
		if err != nil {
			return err
		}

		first = false
		prevWord = word
	}

	return nil
}

func readWord(s *mem.Storage, base uint64, wordSize int) uint64 {
	var v uint64

	for i := wordSize - 1; i >= 0; i-- {
		v = v<<8 | uint64(s.Byte(uint32(base+uint64(i))))
	}

	return v
}

// ParseReadMemH reads a $readmemh listing produced with the same word size
// and stores its values. Values may be separated by any white space and "//"
// starts a comment.
func ParseReadMemH(r io.Reader, s *mem.Storage, wordSize int) error {
	if wordSize <= 0 || wordSize > 8 {
		return fmt.Errorf("unsupported word size %d", wordSize)
	}

	scanner := bufio.NewScanner(r)
	word := uint64(0)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := scanner.Text()
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}

		for _, field := range strings.Fields(line) {
			if strings.HasPrefix(field, "@") {
				addr, err := strconv.ParseUint(field[1:], 16, 64)
				if err != nil {
					return fmt.Errorf("line %d: bad address %q", lineNo, field)
				}

				word = addr

				continue
			}

			value, err := strconv.ParseUint(field, 16, 8*wordSize)
			if err != nil {
				return fmt.Errorf("line %d: bad value %q", lineNo, field)
			}

			base := word * uint64(wordSize)
			for i := 0; i < wordSize; i++ {
				s.SetByte(uint32(base+uint64(i)), byte(value>>(8*i)))
			}

			word++
		}
	}

	return scanner.Err()
}
