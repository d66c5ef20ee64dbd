// Package webform serves the lead form over a WebSocket: each connection
// gets its own form.Controller whose View and EventSource are the browser.
package webform

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wolfman30/leadform/internal/clock"
	"github.com/wolfman30/leadform/internal/form"
	"github.com/wolfman30/leadform/internal/leads"
	"github.com/wolfman30/leadform/internal/observability/metrics"
	"github.com/wolfman30/leadform/pkg/logging"
)

const (
	readLimit = 64 << 10
	pongWait  = 60 * time.Second
	loopQueue = 64

	pingPeriod = (pongWait * 9) / 10
)

// Config wires a Handler.
type Config struct {
	Store         form.LeadStore
	Tracker       leads.Tracker
	Clock         clock.Clock
	SubmitLatency time.Duration
	Options       form.Options
	Logger        *logging.Logger
	Metrics       *metrics.FormMetrics

	// PingInterval is how often the server pings an idle browser. It must
	// stay below the 60s pong deadline; zero means 54s.
	PingInterval time.Duration

	// CheckOrigin overrides the upgrader's same-origin check.
	CheckOrigin func(r *http.Request) bool
}

// Handler manages form sessions.
type Handler struct {
	cfg      Config
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewHandler creates a WebSocket form handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.SubmitLatency <= 0 {
		cfg.SubmitLatency = form.DefaultSubmitLatency
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= pongWait {
		cfg.PingInterval = pingPeriod
	}
	return &Handler{
		cfg:    cfg,
		logger: cfg.Logger.Component("webform"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
		sessions: make(map[string]*session),
	}
}

// ActiveSessions reports the number of open connections.
func (h *Handler) ActiveSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// HandleWebSocket upgrades the request and runs a form session until the
// browser disconnects.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("webform: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	h.serveWS(r.Context(), conn, sessionID)
}

func (h *Handler) serveWS(parent context.Context, conn *websocket.Conn, sessionID string) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sess := newSession(ctx, sessionID, conn, h.cfg.PingInterval)
	loop := form.NewLoop(loopQueue)
	events := form.NewRegistry()
	logger := h.logger.With("session_id", sessionID)

	ctrl := form.New(form.Config{
		View:      sess,
		Store:     h.cfg.Store,
		Submitter: form.NewSimulatedSubmitter(h.cfg.Clock, h.cfg.SubmitLatency),
		Tracker:   h.cfg.Tracker,
		Clock:     h.cfg.Clock,
		Scheduler: loop,
		Logger:    &logging.Logger{Logger: h.cfg.Logger.With("session_id", sessionID)},
		Metrics:   h.cfg.Metrics,
		// storage must outlive the connection for a submission drained
		// after the browser has gone
		Context: context.WithoutCancel(ctx),
		Options: h.cfg.Options,
	})

	writeErr := make(chan error, 1)
	go func() { writeErr <- sess.writePump() }()
	go func() { _ = loop.Run(ctx) }()

	h.register(sess)

	sess.send(OutboundMessage{Op: OpSession, SessionID: sessionID})
	loop.Post(func() { ctrl.Attach(events) })
	logger.Info("webform: connection opened")

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			logger.Debug("webform: connection closed", "error", err)
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if msg.Type == "ping" {
			sess.send(OutboundMessage{Op: OpPong})
			continue
		}
		ev, ok := toEvent(msg)
		if !ok {
			sess.send(OutboundMessage{Op: OpError, Message: "unknown event type " + msg.Type})
			continue
		}
		loop.Post(func() {
			sess.applyValues(msg)
			events.Dispatch(ev)
			if ev.DefaultPrevented() {
				sess.send(OutboundMessage{Op: OpPreventDefault, Target: string(ev.Type)})
			}
		})
	}

	h.unregister(sess)
	cancel()
	<-loop.Done()
	// The loop has stopped, so this goroutine now owns the controller.
	ctrl.Detach()
	if ctrl.Pending() {
		drainCtx, drainCancel := context.WithTimeout(context.WithoutCancel(parent), h.cfg.SubmitLatency+writeWait)
		if err := ctrl.Drain(drainCtx); err != nil {
			logger.Warn("webform: in-flight submission lost", "error", err)
		} else {
			logger.Info("webform: in-flight submission completed after disconnect")
		}
		drainCancel()
	}

	select {
	case err := <-writeErr:
		if err != nil {
			logger.Debug("webform: write failed", "error", err)
		}
	case <-time.After(writeWait):
	}
}

func (h *Handler) register(s *session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	h.cfg.Metrics.SessionOpened()
}

func (h *Handler) unregister(s *session) {
	h.mu.Lock()
	if h.sessions[s.id] == s {
		delete(h.sessions, s.id)
	}
	h.mu.Unlock()
	h.cfg.Metrics.SessionClosed()
}
