package internal

import "time"

type RefinementRequest struct {
	ID        string    `json:"id"`
	UserQuery string    `json:"user_query"`
	Timestamp time.Time `json:"timestamp"`
}
