// Package serial talks to the microcontroller: CR-LF delimited text in,
// single control bytes out.
package serial

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	tarm "github.com/tarm/serial"
)

// ErrClosed is returned by ReadLines when the device stops producing data.
var ErrClosed = errors.New("serial device closed")

// Link owns one open serial device.
type Link struct {
	port io.ReadWriteCloser
	mu   sync.Mutex // guards writes
}

// Open opens device at the given baud rate with 8N1 framing.
func Open(device string, baud int) (*Link, error) {
	port, err := tarm.OpenPort(&tarm.Config{
		Name:     device,
		Baud:     baud,
		Size:     8,
		Parity:   tarm.ParityNone,
		StopBits: tarm.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}
	return NewLink(port), nil
}

// NewLink wraps an already open port.
func NewLink(port io.ReadWriteCloser) *Link {
	return &Link{port: port}
}

// ReadLines calls fn for every CR-LF terminated line, in arrival order,
// until the device fails or ctx is cancelled. It never returns nil.
func (l *Link) ReadLines(ctx context.Context, fn func(line string)) error {
	scanner := bufio.NewScanner(l.port)
	scanner.Split(ScanCRLF)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("serial read failed: %w", err)
	}
	return ErrClosed
}

// WriteByte sends a single control byte. There is no acknowledgment.
func (l *Link) WriteByte(b byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.port.Write([]byte{b}); err != nil {
		return fmt.Errorf("serial write failed: %w", err)
	}
	return nil
}

// Close closes the device, which also unblocks a pending ReadLines.
func (l *Link) Close() error {
	return l.port.Close()
}

// ScanCRLF is a bufio.SplitFunc splitting on "\r\n". A trailing fragment
// without terminator is returned at EOF.
func ScanCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.Index(data, []byte("\r\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
