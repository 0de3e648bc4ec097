package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/c360/streampace/component"
	"github.com/c360/streampace/errors"
	"github.com/c360/streampace/event"
)

// maxLineBytes bounds a single recorded line.
const maxLineBytes = 1 << 20

// Config holds configuration for the JSONL source
type Config struct {
	Path string `json:"path"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "path is required")
	}
	return nil
}

// Source reads a JSONL recording and yields events as the pipeline pulls.
// It implements stream.Receiver[*event.Event] plus the component lifecycle.
type Source struct {
	name   string
	path   string
	logger *slog.Logger

	file    *os.File
	scanner *bufio.Scanner
	first   time.Time
	line    int

	// Lifecycle management
	running   bool
	startTime time.Time
	readErrs  int
	lastErr   string
	mu        sync.Mutex
}

// NewSource creates a new JSONL source from configuration
func NewSource(rawConfig json.RawMessage, deps component.Dependencies) (*Source, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, errors.WrapInvalid(err, "Source", "NewSource", "config unmarshal")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Source{
		name:   "jsonl-input",
		path:   config.Path,
		logger: deps.GetLoggerWithComponent("jsonl-input"),
	}, nil
}

// Initialize opens the recording
func (s *Source) Initialize() error {
	file, err := os.Open(s.path)
	if err != nil {
		return errors.WrapFatal(err, "Source", "Initialize", "open recording")
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	s.mu.Lock()
	s.file = file
	s.scanner = scanner
	s.mu.Unlock()

	s.logger.Debug("Opened recording", "path", s.path)
	return nil
}

// Start marks the source running
func (s *Source) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Source", "Start", "check running state")
	}
	if s.file == nil {
		return errors.WrapFatal(errors.ErrNotStarted, "Source", "Start", "source not initialized")
	}

	s.running = true
	s.startTime = time.Now()

	s.logger.Info("JSONL source started", "path", s.path)
	return nil
}

// Stop closes the recording
func (s *Source) Stop(_ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return errors.WrapTransient(err, "Source", "Stop", "close recording")
		}
		s.file = nil
		s.scanner = nil
	}

	s.logger.Info("JSONL source stopped", "path", s.path, "lines", s.line)
	return nil
}

// Recv yields the next recorded event, or ok=false at end of recording.
// The event's Offset is its position in seconds relative to the first event.
func (s *Source) Recv(ctx context.Context) (*event.Event, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanner == nil {
		return nil, false, errors.WrapFatal(errors.ErrNotStarted, "Source", "Recv", "source not initialized")
	}

	for s.scanner.Scan() {
		s.line++
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}

		var e event.Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			s.readErrs++
			s.lastErr = err.Error()
			return nil, false, errors.WrapInvalid(
				fmt.Errorf("line %d: %w", s.line, err),
				"Source", "Recv", "parse recording")
		}

		if s.first.IsZero() {
			s.first = e.At
		}
		e.Offset = e.At.Sub(s.first).Seconds()

		return &e, true, nil
	}

	if err := s.scanner.Err(); err != nil {
		s.readErrs++
		s.lastErr = err.Error()
		return nil, false, errors.WrapTransient(err, "Source", "Recv", "read recording")
	}

	return nil, false, nil
}

// Meta returns component metadata
func (s *Source) Meta() component.Metadata {
	return component.Metadata{
		Name:        s.name,
		Type:        "input",
		Description: "Reads timestamped events from a JSONL recording",
		Version:     "1.0.0",
	}
}

// Health returns component health status
func (s *Source) Health() component.HealthStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	var uptime time.Duration
	if s.running {
		uptime = time.Since(s.startTime)
	}

	return component.HealthStatus{
		Healthy:    s.running && s.readErrs == 0,
		LastCheck:  time.Now(),
		ErrorCount: s.readErrs,
		LastError:  s.lastErr,
		Uptime:     uptime,
	}
}
