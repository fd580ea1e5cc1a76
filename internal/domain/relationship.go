package domain

import "time"

// Relationship is the durable student/supervisor link an accepted
// relationship invitation produces.
type Relationship struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	SupervisorID string    `json:"supervisor_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// CollectionMembership is the durable access grant an accepted collection
// invitation produces.
type CollectionMembership struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collection_id"`
	UserID       string    `json:"user_id"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
