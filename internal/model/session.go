package model

import "time"

// Session is a persisted wizard run.
type Session struct {
	ID        string      `json:"id"`
	State     WizardState `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SessionFilter narrows a session listing.
type SessionFilter struct {
	Step   Step
	Limit  int
	Offset int
}
