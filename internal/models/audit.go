package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action is the verb recorded on an audit entry.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionLogin   Action = "login"
	ActionLogout  Action = "logout"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

var actions = []Action{
	ActionCreate,
	ActionRead,
	ActionUpdate,
	ActionDelete,
	ActionLogin,
	ActionLogout,
	ActionApprove,
	ActionReject,
}

// Actions returns the fixed set of auditable actions, in declaration order.
func Actions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

func IsValidAction(a Action) bool {
	for _, v := range actions {
		if v == a {
			return true
		}
	}
	return false
}

// Entity names used on audit entries. They match the collection model names.
const (
	EntityUser       = "User"
	EntitySubject    = "Subject"
	EntityDepartment = "Department"
	EntityAuditLog   = "AuditLog"
)

// AuditLog is one append-only audit record. Entries are never updated or
// deleted once written.
type AuditLog struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Action        Action              `bson:"action" json:"action" validate:"required,audit_action"`
	Entity        string              `bson:"entity" json:"entity" validate:"required"`
	EntityID      *primitive.ObjectID `bson:"entityId,omitempty" json:"entityId,omitempty"`
	PerformedBy   primitive.ObjectID  `bson:"performedBy" json:"performedBy" validate:"required"`
	PreviousState State               `bson:"previousState,omitempty" json:"previousState,omitempty"`
	NewState      State               `bson:"newState,omitempty" json:"newState,omitempty"`
	IPAddress     string              `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent     string              `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// AuditFilter narrows audit queries. Zero values are ignored.
type AuditFilter struct {
	Entity      string
	EntityID    *primitive.ObjectID
	PerformedBy *primitive.ObjectID
	Action      Action
	From        time.Time
	To          time.Time
	Limit       int
	Offset      int
}

// AuditCursor is the (createdAt, id) position of the last exported entry.
type AuditCursor struct {
	CreatedAt time.Time
	ID        primitive.ObjectID
}
