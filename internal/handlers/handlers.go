package handlers

import (
	"gorm.io/gorm"

	"github.com/openballot/backend/internal/config"
	"github.com/openballot/backend/internal/notify"
	"github.com/openballot/backend/internal/realtime"
)

// Handler aggregates the per-area handlers so the server wires one value.
type Handler struct {
	Auth     *AuthHandler
	Election *ElectionHandler
	Vote     *VoteHandler
	Results  *ResultsHandler
	User     *UserHandler
	Admin    *AdminHandler
}

func NewHandler(db *gorm.DB, cfg *config.Config, broker realtime.Broker, notifier notify.Notifier) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(db, []byte(cfg.JWTSecret)),
		Election: NewElectionHandler(db, notifier),
		Vote:     NewVoteHandler(db, broker),
		Results:  NewResultsHandler(db, broker),
		User:     NewUserHandler(db),
		Admin:    NewAdminHandler(db),
	}
}
