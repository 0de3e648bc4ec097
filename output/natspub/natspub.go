package natspub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/streampace/component"
	"github.com/c360/streampace/errors"
	"github.com/c360/streampace/event"
	"github.com/c360/streampace/metric"
	"github.com/c360/streampace/natsclient"
	"github.com/c360/streampace/pkg/retry"
)

// Config holds configuration for the NATS publisher sink
type Config struct {
	// Subject is the NATS subject paced events are published to.
	Subject string `json:"subject"`

	// UseJetStream selects acknowledged JetStream publish over core NATS.
	UseJetStream bool `json:"use_jetstream"`

	// StreamName, when set with UseJetStream, is created or bound during
	// Initialize with Subject in its subject filter.
	StreamName string `json:"stream_name,omitempty"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Subject == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "subject is required")
	}
	if c.StreamName != "" && !c.UseJetStream {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"stream_name requires use_jetstream")
	}
	return nil
}

// Publisher publishes paced events to NATS. It implements
// stream.Emitter[*event.Event] plus the component lifecycle.
type Publisher struct {
	name    string
	config  Config
	client  *natsclient.Client
	logger  *slog.Logger
	metrics *metric.Metrics

	// Lifecycle management
	running   bool
	startTime time.Time
	published int64
	pubErrs   int
	lastErr   string
	mu        sync.Mutex
}

// NewPublisher creates a new NATS publisher sink from configuration
func NewPublisher(rawConfig json.RawMessage, deps component.Dependencies) (*Publisher, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, errors.WrapInvalid(err, "Publisher", "NewPublisher", "config unmarshal")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if deps.NATSClient == nil {
		return nil, errors.WrapFatal(errors.ErrInvalidConfig, "Publisher", "NewPublisher",
			"NATS client is required")
	}

	p := &Publisher{
		name:   "nats-output",
		config: config,
		client: deps.NATSClient,
		logger: deps.GetLoggerWithComponent("nats-output"),
	}
	if deps.MetricsRegistry != nil {
		p.metrics = deps.MetricsRegistry.CoreMetrics()
	}
	return p, nil
}

// Initialize creates or binds the JetStream stream when one is configured
func (p *Publisher) Initialize() error {
	if p.config.StreamName == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// The broker may still be settling right after connect
	err := retry.Do(ctx, retry.Quick(), func() error {
		_, err := p.client.CreateStream(ctx, jetstream.StreamConfig{
			Name:     p.config.StreamName,
			Subjects: []string{p.config.Subject},
		})
		return err
	})
	if err != nil {
		return errors.WrapTransient(err, "Publisher", "Initialize",
			fmt.Sprintf("create stream %s", p.config.StreamName))
	}

	p.logger.Debug("Bound JetStream stream",
		"stream", p.config.StreamName,
		"subject", p.config.Subject)
	return nil
}

// Start marks the publisher running
func (p *Publisher) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Publisher", "Start", "check running state")
	}

	p.running = true
	p.startTime = time.Now()

	p.logger.Info("NATS publisher started",
		"subject", p.config.Subject,
		"jetstream", p.config.UseJetStream)
	return nil
}

// Stop marks the publisher stopped. The NATS connection is owned by the
// caller and is not closed here.
func (p *Publisher) Stop(_ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	p.running = false

	p.logger.Info("NATS publisher stopped",
		"subject", p.config.Subject,
		"published", p.published)
	return nil
}

// Emit marshals the event and publishes it to the configured subject.
func (p *Publisher) Emit(ctx context.Context, e *event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		p.recordError(err)
		return errors.WrapInvalid(err, "Publisher", "Emit", "marshal event")
	}

	if p.config.UseJetStream {
		// Acknowledged publish gets a short retry window; losing a paced
		// event to a reconnect blip defeats the point of JetStream mode.
		err = retry.Do(ctx, retry.DefaultConfig(), func() error {
			return p.client.PublishToStream(ctx, p.config.Subject, data)
		})
	} else {
		err = p.client.Publish(ctx, p.config.Subject, data)
	}
	if err != nil {
		p.recordError(err)
		if p.metrics != nil {
			p.metrics.ErrorsTotal.WithLabelValues(p.name, "publish").Inc()
		}
		return errors.WrapTransient(err, "Publisher", "Emit",
			fmt.Sprintf("publish to %s", p.config.Subject))
	}

	p.mu.Lock()
	p.published++
	p.mu.Unlock()
	if p.metrics != nil {
		p.metrics.ElementsEmitted.WithLabelValues("replayer", p.name).Inc()
	}
	return nil
}

func (p *Publisher) recordError(err error) {
	p.mu.Lock()
	p.pubErrs++
	p.lastErr = err.Error()
	p.mu.Unlock()
}

// Meta returns component metadata
func (p *Publisher) Meta() component.Metadata {
	return component.Metadata{
		Name:        p.name,
		Type:        "output",
		Description: "Publishes paced events to a NATS subject",
		Version:     "1.0.0",
	}
}

// Health returns component health status
func (p *Publisher) Health() component.HealthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	var uptime time.Duration
	if p.running {
		uptime = time.Since(p.startTime)
	}

	return component.HealthStatus{
		Healthy:    p.running && p.client.IsHealthy(),
		LastCheck:  time.Now(),
		ErrorCount: p.pubErrs,
		LastError:  p.lastErr,
		Uptime:     uptime,
	}
}
