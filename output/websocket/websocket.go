package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/streampace/component"
	"github.com/c360/streampace/errors"
	"github.com/c360/streampace/event"
	"github.com/c360/streampace/metric"
)

const (
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
	pongTimeout  = 60 * time.Second
)

// Config holds configuration for the WebSocket sink
type Config struct {
	Port int    `json:"port"`
	Path string `json:"path"`
}

// DefaultConfig returns the default configuration for the WebSocket sink
func DefaultConfig() Config {
	return Config{
		Port: 8081,
		Path: "/ws",
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	// Port 0 selects an ephemeral port; the bound address is available from
	// Address() after Initialize.
	if c.Port < 0 || c.Port > 65535 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("port %d out of range", c.Port))
	}
	if c.Path == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "path is required")
	}
	return nil
}

// clientInfo holds per-connection state. Writes to a connection are
// serialized through writeMu; gorilla connections do not tolerate
// concurrent writers.
type clientInfo struct {
	conn        *websocket.Conn
	connectedAt time.Time
	sent        int64
	writeMu     sync.Mutex
	closeOnce   sync.Once
}

func (c *clientInfo) close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}

// Metrics holds Prometheus metrics for the WebSocket sink
type Metrics struct {
	messagesSent     prometheus.Counter
	bytesSent        prometheus.Counter
	clientsConnected prometheus.Gauge
	connectionsTotal prometheus.Counter
	errorsTotal      *prometheus.CounterVec
}

// newMetrics creates and registers sink metrics. Returns nil when no
// registry is provided.
func newMetrics(registry *metric.MetricsRegistry) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streampace",
			Subsystem: "websocket",
			Name:      "messages_sent_total",
			Help:      "Total messages sent to WebSocket clients",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streampace",
			Subsystem: "websocket",
			Name:      "bytes_sent_total",
			Help:      "Total bytes sent to WebSocket clients",
		}),
		clientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "streampace",
			Subsystem: "websocket",
			Name:      "clients_connected",
			Help:      "Number of currently connected clients",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streampace",
			Subsystem: "websocket",
			Name:      "client_connections_total",
			Help:      "Total client connections (including disconnected)",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streampace",
			Subsystem: "websocket",
			Name:      "errors_total",
			Help:      "WebSocket server errors",
		}, []string{"error_type"}),
	}

	registry.PrometheusRegistry().MustRegister(
		m.messagesSent,
		m.bytesSent,
		m.clientsConnected,
		m.connectionsTotal,
		m.errorsTotal,
	)

	return m
}

// Broadcaster is a WebSocket server that fans paced events out to every
// connected client. It implements stream.Emitter[*event.Event] plus the
// component lifecycle.
type Broadcaster struct {
	name   string
	config Config
	logger *slog.Logger

	server   *http.Server
	listener net.Listener
	upgrader websocket.Upgrader

	clients   map[*websocket.Conn]*clientInfo
	clientsMu sync.RWMutex

	shutdown  chan struct{}
	running   atomic.Bool
	startTime time.Time
	sent      atomic.Int64
	errCount  atomic.Int64
	lastErr   atomic.Value // stores string
	wg        sync.WaitGroup

	metrics *Metrics
}

var _ component.Discoverable = (*Broadcaster)(nil)
var _ component.LifecycleComponent = (*Broadcaster)(nil)

// NewBroadcaster creates a new WebSocket sink from configuration
func NewBroadcaster(rawConfig json.RawMessage, deps component.Dependencies) (*Broadcaster, error) {
	config := DefaultConfig()
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &config); err != nil {
			return nil, errors.WrapInvalid(err, "Broadcaster", "NewBroadcaster", "config unmarshal")
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Broadcaster{
		name:   "websocket-output",
		config: config,
		logger: deps.GetLoggerWithComponent("websocket-output"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*clientInfo),
		metrics: newMetrics(deps.MetricsRegistry),
	}, nil
}

// Initialize binds the listen socket so port conflicts surface before Start
func (b *Broadcaster) Initialize() error {
	addr := fmt.Sprintf(":%d", b.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WrapFatal(err, "Broadcaster", "Initialize",
			fmt.Sprintf("listen on %s", addr))
	}
	b.listener = listener
	b.shutdown = make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc(b.config.Path, b.handleConnection)
	b.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	b.logger.Debug("WebSocket listener bound", "addr", listener.Addr().String())
	return nil
}

// Start begins serving WebSocket connections
func (b *Broadcaster) Start(_ context.Context) error {
	if b.listener == nil {
		return errors.WrapFatal(errors.ErrNotStarted, "Broadcaster", "Start", "sink not initialized")
	}
	if !b.running.CompareAndSwap(false, true) {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Broadcaster", "Start", "check running state")
	}

	b.startTime = time.Now()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.server.Serve(b.listener); err != nil && err != http.ErrServerClosed {
			b.recordError("serve", err)
			b.logger.Error("WebSocket server failed", "error", err)
		}
	}()

	b.logger.Info("WebSocket sink started",
		"addr", b.listener.Addr().String(),
		"path", b.config.Path)
	return nil
}

// Stop shuts down the server and disconnects all clients
func (b *Broadcaster) Stop(timeout time.Duration) error {
	if !b.running.CompareAndSwap(true, false) {
		return nil
	}

	close(b.shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	b.clientsMu.Lock()
	for _, client := range b.clients {
		client.close()
	}
	b.clients = make(map[*websocket.Conn]*clientInfo)
	b.clientsMu.Unlock()

	if err := b.server.Shutdown(ctx); err != nil {
		return errors.WrapTransient(err, "Broadcaster", "Stop", "server shutdown")
	}
	b.wg.Wait()

	b.logger.Info("WebSocket sink stopped", "sent", b.sent.Load())
	return nil
}

// Address returns the bound listen address, useful when port 0 was requested
func (b *Broadcaster) Address() string {
	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}

// ClientCount returns the number of currently connected clients
func (b *Broadcaster) ClientCount() int {
	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()
	return len(b.clients)
}

// Emit broadcasts the event to every connected client. A client whose write
// fails or times out is disconnected; the broadcast itself never fails on
// client errors.
func (b *Broadcaster) Emit(ctx context.Context, e *event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(e)
	if err != nil {
		b.recordError("marshal", err)
		return errors.WrapInvalid(err, "Broadcaster", "Emit", "marshal event")
	}

	b.clientsMu.RLock()
	clients := make([]*clientInfo, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.clientsMu.RUnlock()

	for _, client := range clients {
		if err := b.writeTo(client, data); err != nil {
			b.recordError("write", err)
			b.removeClient(client, "write_failed")
		}
	}

	b.sent.Add(1)
	if b.metrics != nil {
		b.metrics.messagesSent.Inc()
		b.metrics.bytesSent.Add(float64(len(data) * len(clients)))
	}
	return nil
}

func (b *Broadcaster) writeTo(client *clientInfo, data []byte) error {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	if err := client.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	client.sent++
	return nil
}

func (b *Broadcaster) handleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.recordError("upgrade", err)
		return
	}

	client := &clientInfo{
		conn:        conn,
		connectedAt: time.Now(),
	}

	b.clientsMu.Lock()
	b.clients[conn] = client
	count := len(b.clients)
	b.clientsMu.Unlock()

	if b.metrics != nil {
		b.metrics.connectionsTotal.Inc()
		b.metrics.clientsConnected.Set(float64(count))
	}

	b.logger.Debug("Client connected",
		"remote", conn.RemoteAddr().String(),
		"clients", count)

	b.wg.Add(2)
	go b.readLoop(client)
	go b.pingLoop(client)
}

// readLoop drains client frames. Clients never send data; the read keeps
// pong handling alive and detects disconnects.
func (b *Broadcaster) readLoop(client *clientInfo) {
	defer b.wg.Done()

	_ = client.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			b.removeClient(client, "client_closed")
			return
		}
	}
}

func (b *Broadcaster) pingLoop(client *clientInfo) {
	defer b.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.shutdown:
			return
		case <-ticker.C:
			client.writeMu.Lock()
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := client.conn.WriteMessage(websocket.PingMessage, nil)
			client.writeMu.Unlock()
			if err != nil {
				b.removeClient(client, "ping_failed")
				return
			}
		}
	}
}

func (b *Broadcaster) removeClient(client *clientInfo, reason string) {
	b.clientsMu.Lock()
	if _, ok := b.clients[client.conn]; !ok {
		b.clientsMu.Unlock()
		return
	}
	delete(b.clients, client.conn)
	count := len(b.clients)
	b.clientsMu.Unlock()

	client.close()

	if b.metrics != nil {
		b.metrics.clientsConnected.Set(float64(count))
	}

	b.logger.Debug("Client disconnected",
		"remote", client.conn.RemoteAddr().String(),
		"reason", reason,
		"sent", client.sent)
}

func (b *Broadcaster) recordError(errType string, err error) {
	b.errCount.Add(1)
	b.lastErr.Store(err.Error())
	if b.metrics != nil {
		b.metrics.errorsTotal.WithLabelValues(errType).Inc()
	}
}

// Meta returns component metadata
func (b *Broadcaster) Meta() component.Metadata {
	return component.Metadata{
		Name:        b.name,
		Type:        "output",
		Description: fmt.Sprintf("WebSocket server on :%d%s broadcasting paced events", b.config.Port, b.config.Path),
		Version:     "1.0.0",
	}
}

// Health returns component health status
func (b *Broadcaster) Health() component.HealthStatus {
	var uptime time.Duration
	if b.running.Load() {
		uptime = time.Since(b.startTime)
	}

	lastErr, _ := b.lastErr.Load().(string)

	return component.HealthStatus{
		Healthy:    b.running.Load(),
		LastCheck:  time.Now(),
		ErrorCount: int(b.errCount.Load()),
		LastError:  lastErr,
		Uptime:     uptime,
	}
}
