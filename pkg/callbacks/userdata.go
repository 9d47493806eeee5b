package callbacks

import (
	"context"
	"maps"
	"sync"

	"github.com/aretw0/flowkit/pkg/model"
	"github.com/aretw0/flowkit/pkg/ports"
	"github.com/aretw0/flowkit/pkg/schema"
)

// Userdata accumulates collected data into one record per conversation.
type Userdata struct {
	model *model.Model

	mu      sync.RWMutex
	records map[string]model.Record
}

// NewUserdata returns an empty store shaped by m.
func NewUserdata(m *model.Model) *Userdata {
	return &Userdata{
		model:   m,
		records: make(map[string]model.Record),
	}
}

// CollectData merges data into the record of the conversation in ctx.
// Keys the model does not declare are dropped. Values that do not fit their field
// type yield a *RejectedError; required fields may still be missing.
func (u *Userdata) CollectData(ctx context.Context, data map[string]any, _, edgeID string) error {
	id := ConversationID(ctx)

	declared := make(map[string]any, len(data))
	for k, v := range data {
		if _, ok := u.model.Field(k); ok {
			declared[k] = v
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	rec, err := u.model.Merge(u.records[id], declared)
	if err != nil {
		return &RejectedError{EdgeID: edgeID, Result: schema.Result{Error: err.Error()}}
	}
	u.records[id] = rec
	return nil
}

// Snapshot returns a copy of the record for a conversation.
func (u *Userdata) Snapshot(conversationID string) model.Record {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return maps.Clone(u.records[conversationID])
}

// Missing lists required fields not yet collected for a conversation.
func (u *Userdata) Missing(conversationID string) []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.model.Missing(u.records[conversationID])
}

// Complete reports whether every required field was collected.
func (u *Userdata) Complete(conversationID string) bool {
	return len(u.Missing(conversationID)) == 0
}

// Reset forgets a conversation.
func (u *Userdata) Reset(conversationID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.records, conversationID)
}

var _ ports.DataCollector = (*Userdata)(nil)
