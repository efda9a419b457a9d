package model

import "time"

// Player is a registered participant, identified by its unique name
type Player struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
