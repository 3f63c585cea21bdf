package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openballot/backend/internal/middleware"
	"github.com/openballot/backend/internal/models"
	"github.com/openballot/backend/internal/notify"
)

type ElectionHandler struct {
	db       *gorm.DB
	notifier notify.Notifier
}

func NewElectionHandler(db *gorm.DB, notifier notify.Notifier) *ElectionHandler {
	return &ElectionHandler{db: db, notifier: notifier}
}

// CreateElection handles POST /elections (admin only). The election and
// its options are inserted in one transaction so a failure cannot leave
// an election with no options behind.
func (h *ElectionHandler) CreateElection(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateElectionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and at least 2 options are required"})
		return
	}

	election := models.Election{
		Title:       input.Title,
		Description: input.Description,
		IsOpen:      true,
		CreatedBy:   principal.ID,
	}
	for _, opt := range input.Options {
		election.Options = append(election.Options, models.Option{
			Name:        opt.Name,
			Description: opt.Description,
		})
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&election).Error
	}); err != nil {
		log.Errorf("election create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create election"})
		return
	}

	log.WithFields(log.Fields{"election_id": election.ID, "created_by": principal.ID}).Info("election created")

	c.JSON(http.StatusCreated, election)
}

// GetElections lists elections. Voters see open elections only; admins
// see everything, mirroring the row-level read rules.
func (h *ElectionHandler) GetElections(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := h.db.Preload("Options").Preload("Creator").Order("created_at desc")
	if !principal.IsAdmin() {
		query = query.Where("is_open = ?", true)
	}

	var elections []models.Election
	if err := query.Find(&elections).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch elections"})
		return
	}

	if elections == nil {
		elections = []models.Election{}
	}

	c.JSON(http.StatusOK, elections)
}

// GetElection returns one election with its options plus the caller's own
// vote if any. The own-vote lookup is the advisory pre-check for the
// ballot screen; the unique constraint remains the source of truth at
// cast time.
func (h *ElectionHandler) GetElection(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	electionID := c.Param("id")

	var election models.Election
	query := h.db.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("options.id")
	}).Preload("Creator")
	if err := query.First(&election, electionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Election not found"})
		return
	}

	if !election.IsOpen && !principal.IsAdmin() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Election not found"})
		return
	}

	var ownVote models.Vote
	hasVoted := h.db.Where("election_id = ? AND user_id = ?", election.ID, principal.ID).
		First(&ownVote).Error == nil

	response := gin.H{
		"id":          election.ID,
		"title":       election.Title,
		"description": election.Description,
		"is_open":     election.IsOpen,
		"created_by":  election.CreatedBy,
		"options":     election.Options,
		"created_at":  election.CreatedAt,
		"has_voted":   hasVoted,
	}
	if hasVoted {
		response["own_vote"] = ownVote
	}

	c.JSON(http.StatusOK, response)
}

// UpdateElection handles PATCH /elections/:id (admin only): the
// open/closed toggle. Elections are never hard-deleted.
func (h *ElectionHandler) UpdateElection(c *gin.Context) {
	electionID := c.Param("id")

	var input models.UpdateElectionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_open is required"})
		return
	}

	var election models.Election
	if err := h.db.First(&election, electionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Election not found"})
		return
	}

	wasOpen := election.IsOpen
	election.IsOpen = *input.IsOpen
	if err := h.db.Model(&election).Update("is_open", election.IsOpen).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update election"})
		return
	}

	log.WithFields(log.Fields{"election_id": election.ID, "is_open": election.IsOpen}).Info("election toggled")

	if wasOpen && !election.IsOpen {
		result, err := computeTally(h.db, election.ID)
		if err == nil {
			h.notifier.ElectionClosed(election.Title, result)
		}
	}

	c.JSON(http.StatusOK, election)
}
