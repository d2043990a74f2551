package ffmpegsdk

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// readChunk is the stdout read size of the reader goroutine.
const readChunk = 64 * 1024

// process is a running ffmpeg with stdin for input and a goroutine that hands
// every stdout chunk to onRead.
type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	done   chan struct{}

	mu      sync.Mutex
	readErr error
	exited  bool
}

func startProcess(path string, args []string, onRead func([]byte)) (*process, error) {
	p := &process{
		cmd:  exec.Command(path, args...),
		done: make(chan struct{}),
	}
	p.cmd.Stderr = &p.stderr

	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	p.stdin = stdin

	if err := p.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	go func() {
		defer close(p.done)
		buf := make([]byte, readChunk)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				onRead(buf[:n])
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					p.mu.Lock()
					p.readErr = err
					p.mu.Unlock()
				}
				return
			}
		}
	}()
	return p, nil
}

// write sends input to ffmpeg.
func (p *process) write(data []byte) error {
	if _, err := p.stdin.Write(data); err != nil {
		return fmt.Errorf("failed to write to ffmpeg: %w", err)
	}
	return nil
}

// finish closes stdin, waits for all output to be delivered and for ffmpeg
// to exit.
func (p *process) finish() error {
	p.stdin.Close()
	<-p.done
	err := p.wait()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w%s", err, p.stderrSuffix())
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readErr != nil {
		return fmt.Errorf("read ffmpeg output: %w", p.readErr)
	}
	return nil
}

// kill stops ffmpeg without waiting for pending output.
func (p *process) kill() {
	p.stdin.Close()
	p.mu.Lock()
	exited := p.exited
	p.mu.Unlock()
	if !exited && p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	<-p.done
	p.wait()
}

func (p *process) wait() error {
	p.mu.Lock()
	if p.exited {
		p.mu.Unlock()
		return nil
	}
	p.exited = true
	p.mu.Unlock()
	return p.cmd.Wait()
}

// stderrSuffix must only be called after the process has been waited for.
func (p *process) stderrSuffix() string {
	s := strings.TrimSpace(p.stderr.String())
	if s == "" {
		return ""
	}
	return "\nstderr: " + s
}
