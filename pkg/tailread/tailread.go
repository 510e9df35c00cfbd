// Package tailread implements the three file-reading modes used by the
// parser and classifier: FULL, TAIL(N), and SMART(N, pattern). TAIL and
// SMART read backward in fixed-size chunks, grounded on the source
// project's read_file_unified.
package tailread

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

const chunkSize = 4096

// Mode selects how much of a file to read.
type Mode int

const (
	Full Mode = iota
	Tail
	Smart
)

// Read opens path and returns its content according to mode. For Tail, n
// is the number of trailing lines to return. For Smart, n is the same
// trailing-line count and pattern is the substring that must be present in
// that window; if it is absent, Smart falls back to a full-file read.
func Read(path string, mode Mode, n int, pattern string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("tailread: open %s: %w", path, err)
	}
	defer f.Close()

	switch mode {
	case Full:
		return readFull(f)
	case Tail:
		return readTail(f, n)
	case Smart:
		window, err := readTail(f, n)
		if err != nil {
			return "", err
		}
		if strings.Contains(window, pattern) {
			return window, nil
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("tailread: seek %s: %w", path, err)
		}
		return readFull(f)
	default:
		return "", fmt.Errorf("tailread: unknown mode %d", mode)
	}
}

func readFull(f *os.File) (string, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("tailread: read: %w", err)
	}
	return string(data), nil
}

// readTail reads backward from the end of f in chunkSize chunks,
// prepending into an accumulator, until it has seen n+1 newlines or
// reaches the start of the file. It then returns the last n lines: a
// final newline ends the last line rather than starting a new one, so the
// cut falls after the (n+1)-th newline from the end when the content ends
// in '\n' and after the n-th otherwise. If fewer than n lines exist, the
// whole accumulated content is returned.
func readTail(f *os.File, n int) (string, error) {
	if n <= 0 {
		return "", nil
	}

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return "", fmt.Errorf("tailread: seek end: %w", err)
	}

	var acc []byte
	newlines := 0
	pos := size

	for pos > 0 && newlines < n+1 {
		readSize := int64(chunkSize)
		if readSize > pos {
			readSize = pos
		}
		pos -= readSize

		buf := make([]byte, readSize)
		if _, err := f.ReadAt(buf, pos); err != nil && err != io.EOF {
			return "", fmt.Errorf("tailread: read chunk: %w", err)
		}

		newlines += bytes.Count(buf, []byte{'\n'})
		acc = append(buf, acc...)
	}

	want := n
	if len(acc) > 0 && acc[len(acc)-1] == '\n' {
		want = n + 1
	}
	idx := nthNewlineFromEnd(acc, want)
	if idx < 0 {
		return string(acc), nil
	}
	return string(acc[idx+1:]), nil
}

// nthNewlineFromEnd returns the byte offset of the n-th '\n' counted from
// the end of data, or -1 if fewer than n newlines exist.
func nthNewlineFromEnd(data []byte, n int) int {
	count := 0
	for i := len(data) - 1; i >= 0; i-- {
		if data[i] == '\n' {
			count++
			if count == n {
				return i
			}
		}
	}
	return -1
}
