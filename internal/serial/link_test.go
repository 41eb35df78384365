package serial

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

// fakePort replays a fixed input and records everything written to it.
type fakePort struct {
	r       io.Reader
	mu      sync.Mutex
	written bytes.Buffer
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestScanCRLF(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"hello\r\n", []string{"hello"}},
		{"light\r\nhello\r\n", []string{"light", "hello"}},
		{"a\nb\r\n", []string{"a\nb"}},
		{"\r\n\r\n", []string{"", ""}},
		{"partial", []string{"partial"}},
		{"", nil},
	}

	for _, tt := range tests {
		scanner := bufio.NewScanner(strings.NewReader(tt.input))
		scanner.Split(ScanCRLF)

		var got []string
		for scanner.Scan() {
			got = append(got, scanner.Text())
		}
		if len(got) != len(tt.expected) {
			t.Errorf("ScanCRLF(%q) = %q, expected %q", tt.input, got, tt.expected)
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("ScanCRLF(%q)[%d] = %q, expected %q", tt.input, i, got[i], tt.expected[i])
			}
		}
	}
}

func TestLink_ReadLinesInOrder(t *testing.T) {
	port := &fakePort{r: strings.NewReader("hello\r\nlight\r\nbye\r\n")}
	link := NewLink(port)

	var lines []string
	err := link.ReadLines(context.Background(), func(line string) {
		lines = append(lines, line)
	})

	if !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed at end of input, got %v", err)
	}
	expected := []string{"hello", "light", "bye"}
	if strings.Join(lines, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected lines %q, got %q", expected, lines)
	}
}

func TestLink_ReadLinesCancelled(t *testing.T) {
	port := &fakePort{r: strings.NewReader("one\r\ntwo\r\n")}
	link := NewLink(port)

	ctx, cancel := context.WithCancel(context.Background())
	var lines []string
	err := link.ReadLines(ctx, func(line string) {
		lines = append(lines, line)
		cancel()
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(lines) != 1 {
		t.Errorf("Expected exactly one line before cancel, got %q", lines)
	}
}

func TestLink_WriteByte(t *testing.T) {
	port := &fakePort{r: strings.NewReader("")}
	link := NewLink(port)

	for _, b := range []byte{'H', 'L'} {
		if err := link.WriteByte(b); err != nil {
			t.Fatalf("WriteByte(%q) failed: %v", b, err)
		}
	}

	if got := port.written.String(); got != "HL" {
		t.Errorf("Expected written bytes %q, got %q", "HL", got)
	}

	link.Close()
	if !port.closed {
		t.Error("Expected port to be closed")
	}
}
