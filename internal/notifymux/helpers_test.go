package notifymux

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
)

// testPort implements Porter over a fixed input. Reads return io.EOF once the
// input is exhausted.
type testPort struct {
	r io.Reader

	mu       sync.Mutex
	written  bytes.Buffer
	writeErr error
	shortBy  int
	closed   bool
	closeErr error
}

func newTestPort(data string) *testPort {
	return &testPort{r: strings.NewReader(data)}
}

func (p *testPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return 0, errors.New("port closed")
	}
	return p.r.Read(buf)
}

func (p *testPort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	n, err := p.written.Write(data)
	return n - p.shortBy, err
}

func (p *testPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.closeErr
}

func (p *testPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

func (p *testPort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// pipePort is a Porter whose reads block until data is written to w.
type pipePort struct {
	*io.PipeReader
	w *io.PipeWriter
}

func newPipePort() *pipePort {
	r, w := io.Pipe()
	return &pipePort{PipeReader: r, w: w}
}

func (p *pipePort) Write(data []byte) (int, error) { return len(data), nil }

func (p *pipePort) Close() error {
	p.w.Close()
	return p.PipeReader.Close()
}
