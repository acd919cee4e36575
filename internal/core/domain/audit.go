package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Lifecycle actions recorded in the audit trail.
const (
	AuditActionLogModel          = "log_model"
	AuditActionRegister          = "register"
	AuditActionSetAlias          = "set_alias"
	AuditActionDeleteAlias       = "delete_alias"
	AuditActionPromote           = "promote"
	AuditActionDeleteVersion     = "delete_version"
	AuditActionUpdateDescription = "update_description"
)

// AuditEntry is one recorded lifecycle mutation.
type AuditEntry struct {
	ID         uuid.UUID         `json:"id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Action     string            `json:"action"`
	ModelName  string            `json:"model_name"`
	Version    string            `json:"version,omitempty"`
	Alias      string            `json:"alias,omitempty"`
	Detail     map[string]string `json:"detail,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
}

type requestIDKey struct{}

// WithRequestID attaches the request id so audit entries can correlate
// lifecycle mutations with incoming HTTP requests.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
