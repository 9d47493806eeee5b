package callbacks

import "context"

type conversationKey struct{}

// WithConversationID returns a context carrying the conversation ID used as lock key by Serialized.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationKey{}, id)
}

// ConversationID returns the conversation ID stored in ctx, or "".
func ConversationID(ctx context.Context) string {
	id, _ := ctx.Value(conversationKey{}).(string)
	return id
}
