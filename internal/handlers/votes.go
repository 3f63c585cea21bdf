package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openballot/backend/internal/middleware"
	"github.com/openballot/backend/internal/models"
	"github.com/openballot/backend/internal/realtime"
)

// Postgres SQLSTATE codes the vote insert is expected to hit.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

type VoteHandler struct {
	db     *gorm.DB
	broker realtime.Broker
}

func NewVoteHandler(db *gorm.DB, broker realtime.Broker) *VoteHandler {
	return &VoteHandler{db: db, broker: broker}
}

// CastVote handles POST /elections/:id/vote.
//
// The handler runs an advisory pre-check so the common "already voted"
// case gets a friendly answer without touching the constraint, but the
// pre-check result is never trusted at write time: two sessions for the
// same voter can both pass it, and only the unique (election_id, user_id)
// index decides the race. A 23505 from the insert is therefore mapped to
// the same recoverable "already voted" outcome, and the insert is not
// retried.
func (h *VoteHandler) CastVote(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	electionID := c.Param("id")

	var input models.CastVoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "option_id is required"})
		return
	}

	var election models.Election
	if err := h.db.First(&election, electionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Election not found"})
		return
	}

	// Early, friendlier answers for the two expected rejections. Both are
	// re-checked authoritatively by the storage tier below.
	if !election.IsOpen {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Election is closed"})
		return
	}

	var existing models.Vote
	if err := h.db.Where("election_id = ? AND user_id = ?", election.ID, principal.ID).
		First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"message": "You have already voted in this election",
			"vote":    existing,
		})
		return
	}

	var option models.Option
	if err := h.db.First(&option, input.OptionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Option not found"})
		return
	}
	if option.ElectionID != election.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Option does not belong to this election"})
		return
	}

	vote := models.Vote{
		ElectionID: election.ID,
		OptionID:   option.ID,
		UserID:     principal.ID,
	}

	if err := h.db.Create(&vote).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				// Lost the race against another session for this voter.
				c.JSON(http.StatusConflict, gin.H{
					"message": "You have already voted in this election",
				})
				return
			case pgCheckViolation:
				// Election closed between our read and the insert.
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Election is closed"})
				return
			case pgForeignKeyViolation:
				c.JSON(http.StatusBadRequest, gin.H{"error": "Option does not belong to this election"})
				return
			}
		}
		log.Errorf("vote insert failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record vote"})
		return
	}

	if err := h.broker.Publish(c.Request.Context(), realtime.VoteEvent{
		ElectionID: vote.ElectionID,
		OptionID:   vote.OptionID,
	}); err != nil {
		// The ledger write stands; viewers catch up on their next fetch.
		log.Errorf("vote event publish failed: %v", err)
	}

	log.WithFields(log.Fields{"election_id": vote.ElectionID, "option_id": vote.OptionID}).Info("vote recorded")

	c.JSON(http.StatusCreated, gin.H{
		"message": "Vote recorded",
		"vote":    vote,
	})
}
