package cli

import (
	"context"
	"log/slog"

	"github.com/aretw0/flowkit/pkg/callbacks"
	"github.com/aretw0/flowkit/pkg/model"
	"github.com/aretw0/flowkit/pkg/ports"
)

// Host is the callback pair behind the mcp and serve commands. It keeps one record of
// collected data per conversation and logs every step.
type Host struct {
	logger *slog.Logger
	data   *callbacks.Userdata

	nextT  ports.Transitioner
	nextDC ports.DataCollector
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithForward passes every callback on after the host handled it.
func WithForward(t ports.Transitioner, dc ports.DataCollector) HostOption {
	return func(h *Host) {
		h.nextT = t
		h.nextDC = dc
	}
}

// NewHost creates a Host whose records are shaped by m.
func NewHost(m *model.Model, logger *slog.Logger, opts ...HostOption) *Host {
	h := &Host{logger: logger, data: callbacks.NewUserdata(m)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Data returns the per-conversation records.
func (h *Host) Data() *callbacks.Userdata {
	return h.data
}

// Transition logs the move. Conversation state lives with the agent.
func (h *Host) Transition(ctx context.Context, targetNodeID, edgeID string) error {
	h.logger.InfoContext(ctx, "Transition",
		"conversation_id", callbacks.ConversationID(ctx), "edge_id", edgeID, "node_id", targetNodeID)
	if h.nextT != nil {
		return h.nextT.Transition(ctx, targetNodeID, edgeID)
	}
	return nil
}

// CollectData merges data into the conversation record.
func (h *Host) CollectData(ctx context.Context, data map[string]any, targetNodeID, edgeID string) error {
	id := callbacks.ConversationID(ctx)
	if err := h.data.CollectData(ctx, data, targetNodeID, edgeID); err != nil {
		h.logger.WarnContext(ctx, "Collected data does not fit the model",
			"conversation_id", id, "edge_id", edgeID, "err", err)
		return err
	}
	h.logger.InfoContext(ctx, "Data collected",
		"conversation_id", id, "edge_id", edgeID, "missing", h.data.Missing(id))
	if h.nextDC != nil {
		return h.nextDC.CollectData(ctx, data, targetNodeID, edgeID)
	}
	return nil
}

// Chain wraps the host so that callbacks of one conversation never overlap and
// collected data is checked against the edge's schema first.
func Chain(h *Host, locker ports.DistributedLocker, lookup callbacks.SchemaLookup, logger *slog.Logger) (ports.Transitioner, ports.DataCollector) {
	serialized := callbacks.NewSerialized(h, h,
		callbacks.WithLocker(locker),
		callbacks.WithKeyPrefix("conversation:"),
		callbacks.WithLogger(logger),
	)
	return serialized, callbacks.NewValidator(serialized, lookup)
}
