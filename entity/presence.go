package entity

import "time"

// Presence is the online state of one user, fanned out to every
// conversation that references them.
type Presence struct {
	IsOnline bool      `json:"isOnline" bson:"is_online"`
	LastSeen time.Time `json:"lastSeen" bson:"last_seen"`
}
