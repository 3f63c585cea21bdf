package models

import "time"

type Election struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description,omitempty"`
	IsOpen      bool      `gorm:"not null;default:true" json:"is_open"`
	CreatedBy   int       `json:"created_by"`
	Creator     User      `gorm:"foreignKey:CreatedBy" json:"creator"`
	Options     []Option  `gorm:"foreignKey:ElectionID" json:"options,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Option struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	ElectionID  int    `gorm:"not null;index" json:"election_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
}

type CreateElectionRequest struct {
	Title       string                `json:"title" binding:"required"`
	Description string                `json:"description"`
	Options     []CreateOptionRequest `json:"options" binding:"required,min=2,dive"`
}

type CreateOptionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateElectionRequest struct {
	IsOpen *bool `json:"is_open" binding:"required"`
}
