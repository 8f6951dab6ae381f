package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cellbots/replay/internal/config"
	"github.com/cellbots/replay/pkg/core"
	"github.com/cellbots/replay/pkg/streaming"
)

// Backend streams finished runs over WebSocket to the replay server.
// It implements storage.Backend but not storage.Uploadable.
type Backend struct {
	conn       *connection
	cfg        config.WebSocketConfig
	log        *slog.Logger
	ackTimeout time.Duration
}

// New creates a new WebSocket storage backend.
func New(cfg config.WebSocketConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn:       newConnection(logger),
		cfg:        cfg,
		log:        logger,
		ackTimeout: defaultAckTimeout,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	return b.conn.send(data)
}

// SaveRun streams start_run, one add_agent per agent followed by its curves,
// and end_run. start_run and end_run wait for a server ack.
func (b *Backend) SaveRun(run *core.Run) error {
	start, err := marshalEnvelope(streaming.TypeStartRun, streaming.NewStartRun(run.Info))
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	b.conn.mu.Lock()
	b.conn.cachedStart = start
	b.conn.mu.Unlock()
	defer func() {
		b.conn.mu.Lock()
		b.conn.cachedStart = nil
		b.conn.mu.Unlock()
	}()

	if err := b.conn.sendAndWait(start, streaming.TypeStartRun, b.ackTimeout); err != nil {
		return err
	}

	batches := 0
	for _, track := range run.Agents {
		if err := b.sendEnvelope(streaming.TypeAddAgent, streaming.NewAddAgent(track)); err != nil {
			return err
		}
		for _, ch := range core.Channels {
			payload, ok := streaming.NewKeyframes(track.ID, ch, track.Curve(ch))
			if !ok {
				continue
			}
			if err := b.sendEnvelope(streaming.TypeKeyframes, payload); err != nil {
				return err
			}
			batches++
		}
	}

	end, err := marshalEnvelope(streaming.TypeEndRun, streaming.NewEndRun(run.Info))
	if err != nil {
		return err
	}
	if err := b.conn.sendAndWait(end, streaming.TypeEndRun, b.ackTimeout); err != nil {
		return err
	}

	b.log.Info("Run streamed", "run", run.Info.Name, "agents", len(run.Agents), "batches", batches)
	return nil
}
