package models

import "time"

// Community is a named space containing channels.
type Community struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description,omitempty"`
	OwnerID     string    `db:"owner_id" json:"owner_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Channel is a broadcast scope inside a community.
type Channel struct {
	ID          int       `db:"id" json:"id"`
	CommunityID int       `db:"community_id" json:"community_id"`
	Name        string    `db:"name" json:"name"`
	Kind        string    `db:"kind" json:"kind"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Membership links a user to a community.
type Membership struct {
	CommunityID int       `db:"community_id" json:"community_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Role        string    `db:"role" json:"role"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}
