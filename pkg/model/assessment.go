package model

import (
	"time"

	"github.com/google/uuid"
)

// Assessment is a generated natural-language verdict for a token, persisted
// for history when Postgres is configured.
type Assessment struct {
	ID         uuid.UUID `json:"id"`
	TokenID    string    `json:"token_id"`
	Org        string    `json:"org,omitempty"`
	Summary    string    `json:"summary"`
	RiskLevel  string    `json:"risk_level"`
	Highlights []string  `json:"highlights,omitempty"`
	Model      string    `json:"model,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
