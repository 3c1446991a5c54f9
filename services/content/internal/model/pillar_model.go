package model

import "time"

type PillarModel struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"client_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Color          string    `json:"color,omitempty"`
	Channels       []string  `json:"channels,omitempty"`
	TargetAudience string    `json:"target_audience,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
