package model

import "time"

// ChangeAction names the kind of mutation recorded in the change trail
type ChangeAction string

const (
	ActionCreated ChangeAction = "created"
	ActionUpdated ChangeAction = "updated"
	ActionDeleted ChangeAction = "deleted"
)

// ChangeEvent records one successful catalog mutation
type ChangeEvent struct {
	ID          string       `json:"id,omitempty"`
	Entity      string       `json:"entity"`
	Action      ChangeAction `json:"action"`
	EntityID    string       `json:"entityId"`
	FranchiseID string       `json:"franchiseId,omitempty"`
	BranchID    string       `json:"branchId,omitempty"`
	Subject     string       `json:"subject,omitempty"`
	OccurredAt  time.Time    `json:"occurredAt"`
}

// EventType is the key subscribers register under, e.g. "product.updated"
func (e *ChangeEvent) EventType() string {
	return e.Entity + "." + string(e.Action)
}
