package model

import "time"

type Participant struct {
	ID        string    `json:"id" bson:"_id"`
	SessionID string    `json:"sessionId" bson:"sessionId"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
