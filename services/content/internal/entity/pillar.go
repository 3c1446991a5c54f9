package entity

import (
	"strings"
	"time"
)

// Pillar is a recurring content theme a client tags posts with.
type Pillar struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"client_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Color          string    `json:"color,omitempty"`
	Channels       []string  `json:"channels,omitempty"`
	TargetAudience string    `json:"target_audience,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewPillar(clientID, name string) (*Pillar, error) {
	if strings.TrimSpace(name) == "" {
		return nil, Invalid("pillar name is required")
	}
	if strings.TrimSpace(clientID) == "" {
		return nil, Invalid("client_id is required")
	}
	return &Pillar{ClientID: clientID, Name: strings.TrimSpace(name), Color: "#6366f1"}, nil
}

// PillarPerformance aggregates a pillar's output over a window.
type PillarPerformance struct {
	PillarID    string             `json:"pillar_id"`
	Name        string             `json:"name"`
	Since       time.Time          `json:"since"`
	Posts       int                `json:"posts"`
	Derivatives int                `json:"derivatives"`
	Published   int                `json:"published"`
	Failed      int                `json:"failed"`
	Engagement  map[string]float64 `json:"engagement"`
}
