package logreader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Poller tails the client log and sends recognized draft events through a channel.
// File system notifications trigger reads; a ticker backs them up in case
// events are delayed or the directory cannot be watched. Only complete lines
// are consumed, and a file that shrinks is read again from the start.
type Poller struct {
	path      string
	interval  time.Duration
	lastPos   int64
	expansion string
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	updates   chan *DraftEvent
	errChan   chan error
	done      chan struct{}
	running   bool
	stopped   bool
	runningMu sync.Mutex
}

// PollerConfig holds configuration for a Poller.
type PollerConfig struct {
	// Path is the path to the log file to monitor.
	Path string

	// Interval is the backup polling period.
	// Default: 1 second
	Interval time.Duration

	// BufferSize is the size of the updates channel buffer.
	// Default: 100
	BufferSize int

	// FromStart reads the existing contents instead of only new lines.
	FromStart bool
}

// DefaultPollerConfig returns a PollerConfig with sensible defaults.
func DefaultPollerConfig(path string) *PollerConfig {
	return &PollerConfig{
		Path:       path,
		Interval:   time.Second,
		BufferSize: 100,
	}
}

// NewPoller creates a new Poller with the given configuration.
func NewPoller(config *PollerConfig) (*Poller, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.Path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}
	if config.Interval == 0 {
		config.Interval = time.Second
	}
	if config.BufferSize == 0 {
		config.BufferSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	poller := &Poller{
		path:     config.Path,
		interval: config.Interval,
		ctx:      ctx,
		cancel:   cancel,
		updates:  make(chan *DraftEvent, config.BufferSize),
		errChan:  make(chan error, 1),
		done:     make(chan struct{}),
	}

	if !config.FromStart {
		if info, err := os.Stat(config.Path); err == nil {
			poller.lastPos = info.Size()
		} else if !os.IsNotExist(err) {
			cancel()
			return nil, fmt.Errorf("stat log file: %w", err)
		}
	}

	return poller, nil
}

// Start begins tailing the log file and returns the event channel.
// The channel is closed once the poller stops. A Poller is single-use: after
// Stop, Start returns the closed channel without tailing again.
func (p *Poller) Start() <-chan *DraftEvent {
	p.runningMu.Lock()
	defer p.runningMu.Unlock()
	if p.running || p.stopped {
		return p.updates
	}
	p.running = true

	go p.poll()

	return p.updates
}

func (p *Poller) poll() {
	defer close(p.done)
	defer close(p.updates)

	var events <-chan fsnotify.Event
	var watchErrs <-chan error

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("[Poller] File watcher unavailable, polling only: %v", err)
	} else {
		defer func() { _ = watcher.Close() }()
		// Watch the directory so truncation and re-creation are seen too.
		if err := watcher.Add(filepath.Dir(p.path)); err != nil {
			log.Printf("[Poller] Cannot watch %s, polling only: %v", filepath.Dir(p.path), err)
		} else {
			events = watcher.Events
			watchErrs = watcher.Errors
		}
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.check()
	for {
		select {
		case <-p.ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(event.Name) == filepath.Clean(p.path) &&
				event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				p.check()
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			log.Printf("[Poller] File watcher error: %v", err)
		case <-ticker.C:
			p.check()
		}
	}
}

func (p *Poller) check() {
	if err := p.checkForUpdates(); err != nil {
		select {
		case p.errChan <- err:
		default:
		}
	}
}

// checkForUpdates reads complete lines appended since the last read.
func (p *Poller) checkForUpdates() error {
	file, err := os.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			p.mu.Lock()
			p.lastPos = 0
			p.mu.Unlock()
			return nil
		}
		return fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if stat.Size() < p.lastPos {
		log.Printf("[Poller] Log truncated, reading from the start")
		p.lastPos = 0
	}
	if stat.Size() == p.lastPos {
		return nil
	}

	if _, err := file.Seek(p.lastPos, io.SeekStart); err != nil {
		return fmt.Errorf("seek to position %d: %w", p.lastPos, err)
	}

	reader := bufio.NewReader(file)
	var pending []*DraftEvent
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			// Partial line: leave it for the next read.
			break
		}
		if err != nil {
			return fmt.Errorf("read log: %w", err)
		}
		p.lastPos += int64(len(line))

		event, ok := ParseLine(line)
		if !ok {
			continue
		}
		if event.Kind == EventJoin {
			p.expansion = event.Expansion
		} else if event.Expansion == "" {
			event.Expansion = p.expansion
		}
		pending = append(pending, event)
	}

	for _, event := range pending {
		select {
		case p.updates <- event:
		case <-p.ctx.Done():
			return p.ctx.Err()
		}
	}
	return nil
}

// Stop stops the poller and waits for the event channel to close.
func (p *Poller) Stop() {
	p.runningMu.Lock()
	if !p.running {
		p.runningMu.Unlock()
		return
	}
	p.running = false
	p.stopped = true
	p.runningMu.Unlock()

	p.cancel()
	<-p.done
}

// Errors returns a channel that receives errors encountered while reading.
func (p *Poller) Errors() <-chan error {
	return p.errChan
}

// IsRunning returns whether the poller is currently running.
func (p *Poller) IsRunning() bool {
	p.runningMu.Lock()
	defer p.runningMu.Unlock()
	return p.running
}
