// Package feed pushes live equity updates for a run over WebSocket.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/observability"
	"github.com/steveuk2021/thescammershort/internal/storage"
	"github.com/steveuk2021/thescammershort/internal/timeline"
)

// Config configures the live feed.
type Config struct {
	// PollInterval is how often each subscription re-reads its run.
	PollInterval time.Duration
	// WriteTimeout bounds every frame write.
	WriteTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
}

// DefaultConfig returns default feed configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: 2 * time.Second,
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// Frame is one message pushed to a client.
type Frame struct {
	RunID           string      `json:"run_id"`
	Point           *PointFrame `json:"point"`
	CurrentDrawdown float64     `json:"current_drawdown"`
	MaxDrawdown     float64     `json:"max_drawdown"`
	Points          int         `json:"points"`
	Empty           bool        `json:"empty"`
}

// PointFrame is the JSON form of an equity point.
type PointFrame struct {
	TS            string             `json:"ts"`
	BySymbol      map[string]float64 `json:"by_symbol"`
	RealizedPnL   float64            `json:"realized_pnl"`
	UnrealizedPnL float64            `json:"unrealized_pnl"`
	Equity        float64            `json:"aggregate_equity"`
	PeakEquity    float64            `json:"peak_equity"`
	DrawdownPct   float64            `json:"drawdown_pct"`
}

// Hub serves live feed subscriptions.
type Hub struct {
	runs      storage.RunStore
	legs      storage.LegStore
	snapshots storage.SnapshotStore
	config    Config
	logger    *zap.Logger
	upgrader  websocket.Upgrader

	mu     sync.Mutex
	subs   map[string]*websocket.Conn
	done   chan struct{}
	closed bool
}

// NewHub creates a feed hub over the record stores.
func NewHub(runs storage.RunStore, legs storage.LegStore, snapshots storage.SnapshotStore, config Config, logger *zap.Logger) *Hub {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if config.PingInterval <= 0 {
		config.PingInterval = DefaultConfig().PingInterval
	}
	return &Hub{
		runs:      runs,
		legs:      legs,
		snapshots: snapshots,
		config:    config,
		logger:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: make(map[string]*websocket.Conn),
		done: make(chan struct{}),
	}
}

// Clients returns the number of connected subscriptions.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeRun upgrades the request and streams frames for runID until the
// client disconnects or the hub is closed. Errors before the upgrade
// (unknown run) are returned to the caller; later errors end the stream.
func (h *Hub) ServeRun(w http.ResponseWriter, r *http.Request, runID string) error {
	run, err := h.runs.GetByID(r.Context(), runID)
	if err != nil {
		return fmt.Errorf("get run %s: %w", runID, err)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response
		h.logger.Warn("websocket upgrade failed", zap.String("run_id", runID), zap.Error(err))
		return nil
	}

	id := ulid.Make().String()
	if !h.register(id, conn) {
		conn.Close()
		return nil
	}
	defer h.unregister(id)

	log := h.logger.With(zap.String("run_id", runID), zap.String("subscriber", id))
	log.Info("feed client connected")

	gone := make(chan struct{})
	go h.readLoop(conn, gone)

	h.stream(conn, run, gone, log)
	log.Info("feed client disconnected")
	return nil
}

func (h *Hub) register(id string, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.subs[id] = conn
	observability.FeedClientConnected()
	return true
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	conn, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()

	if ok {
		conn.Close()
		observability.FeedClientDisconnected()
	}
}

// readLoop drains client messages so control frames are processed.
func (h *Hub) readLoop(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	readTimeout := 2 * h.config.PingInterval
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) stream(conn *websocket.Conn, run *domain.Run, gone <-chan struct{}, log *zap.Logger) {
	state := newCurveState(run.InitialInvestment)

	poll := time.NewTicker(h.config.PollInterval)
	defer poll.Stop()
	ping := time.NewTicker(h.config.PingInterval)
	defer ping.Stop()

	push := func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), h.config.PollInterval)
		defer cancel()

		frame, changed, err := h.poll(ctx, run, state)
		if err != nil {
			log.Warn("feed poll failed", zap.Error(err))
			return true
		}
		if !changed {
			return true
		}
		conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
		if err := conn.WriteJSON(frame); err != nil {
			log.Debug("feed write failed", zap.Error(err))
			return false
		}
		observability.RecordFeedFrame()
		return true
	}

	if !push() {
		return
	}
	for {
		select {
		case <-h.done:
			conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-gone:
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-poll.C:
			if !push() {
				return
			}
		}
	}
}

// poll re-reads a run's records, rebuilds its curve and advances state.
func (h *Hub) poll(ctx context.Context, run *domain.Run, state *curveState) (*Frame, bool, error) {
	legs, err := h.legs.GetByRunID(ctx, run.RunID)
	if err != nil {
		return nil, false, fmt.Errorf("load legs: %w", err)
	}
	snaps, err := h.snapshots.GetByRunID(ctx, run.RunID)
	if err != nil {
		return nil, false, fmt.Errorf("load snapshots: %w", err)
	}

	last, changed := state.update(timeline.Reconstruct(run.InitialInvestment, snaps, legs))
	if !changed {
		return nil, false, nil
	}

	frame := &Frame{
		RunID:           run.RunID,
		CurrentDrawdown: state.tracker.Current(),
		MaxDrawdown:     state.tracker.Max(),
		Points:          state.tracker.Points(),
		Empty:           state.tracker.Empty(),
	}
	if last != nil {
		frame.Point = &PointFrame{
			TS:            last.TS.UTC().Format(time.RFC3339Nano),
			BySymbol:      last.UnrealizedBySymbol,
			RealizedPnL:   last.RealizedPnL,
			UnrealizedPnL: last.UnrealizedPnL,
			Equity:        last.Equity,
			PeakEquity:    last.PeakEquity,
			DrawdownPct:   last.DrawdownPct,
		}
	}
	return frame, true, nil
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
}
