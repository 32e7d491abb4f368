package event

import (
	"strings"
	"time"

	"go-online-store/internal/model"
)

type Type string

const (
	TypeProductCreated  Type = "product.created"
	TypeProductUpdated  Type = "product.updated"
	TypeProductDeleted  Type = "product.deleted"
	TypeUserCreated     Type = "user.created"
	TypeUserUpdated     Type = "user.updated"
	TypeUserDeleted     Type = "user.deleted"
	TypeCategoryCreated Type = "category.created"
)

// Resource is the resource family an event type belongs to, e.g. "product".
func (t Type) Resource() string {
	resource, _, _ := strings.Cut(string(t), ".")
	return resource
}

type Event struct {
	ID         string           `json:"id"`
	Type       Type             `json:"type"`
	ResourceID int64            `json:"resource_id,omitempty"`
	Payload    any              `json:"payload,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
	Actor      model.AuditActor `json:"actor"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
