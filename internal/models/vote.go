package models

import "time"

// Vote records a single choice by a single user in a single election.
// The composite unique index is the authoritative one-vote-per-election
// rule; everything client-side is advisory.
type Vote struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	ElectionID int       `gorm:"not null;uniqueIndex:idx_votes_election_user" json:"election_id"`
	OptionID   int       `gorm:"not null;index" json:"option_id"`
	UserID     int       `gorm:"not null;uniqueIndex:idx_votes_election_user" json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type CastVoteRequest struct {
	OptionID int `json:"option_id" binding:"required"`
}
