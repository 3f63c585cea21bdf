package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openballot/backend/internal/models"
	"github.com/openballot/backend/internal/realtime"
	"github.com/openballot/backend/internal/tally"
)

// streamDebounce bounds how often one results stream re-tallies under
// bursty vote traffic.
const streamDebounce = 250 * time.Millisecond

type ResultsHandler struct {
	db     *gorm.DB
	broker realtime.Broker
}

func NewResultsHandler(db *gorm.DB, broker realtime.Broker) *ResultsHandler {
	return &ResultsHandler{db: db, broker: broker}
}

// computeTally fetches per-option counts and runs the aggregator. Options
// are retrieved ORDER BY id, which fixes the documented tie-break order.
func computeTally(db *gorm.DB, electionID int) (tally.Result, error) {
	var counts []tally.OptionCount
	err := db.Table("options").
		Select("options.id AS option_id, options.name, COUNT(votes.id) AS votes").
		Joins("LEFT JOIN votes ON votes.option_id = options.id").
		Where("options.election_id = ?", electionID).
		Group("options.id, options.name").
		Order("options.id").
		Scan(&counts).Error
	if err != nil {
		return tally.Result{}, err
	}

	return tally.Compute(counts), nil
}

// GetResults handles GET /elections/:id/results: a full recompute from
// the current vote rows, no cached state.
func (h *ResultsHandler) GetResults(c *gin.Context) {
	var election models.Election
	if err := h.db.First(&election, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Election not found"})
		return
	}

	result, err := computeTally(h.db, election.ID)
	if err != nil {
		log.Errorf("tally failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute results"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"election_id": election.ID,
		"title":       election.Title,
		"is_open":     election.IsOpen,
		"results":     result,
	})
}

// StreamResults handles GET /elections/:id/stream: a server-sent event
// stream of tallies. Vote events for the election are coalesced through a
// debounce window, and each flush triggers one full recompute. The
// subscription is torn down when the client disconnects.
func (h *ResultsHandler) StreamResults(c *gin.Context) {
	var election models.Election
	if err := h.db.First(&election, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Election not found"})
		return
	}

	ctx := c.Request.Context()

	events, cancelSub, err := h.broker.Subscribe(ctx, election.ID)
	if err != nil {
		log.Errorf("stream subscribe failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open results stream"})
		return
	}
	defer cancelSub()

	flush := realtime.Coalesce(ctx, events, streamDebounce)

	streamID := uuid.NewString()
	log.WithFields(log.Fields{"election_id": election.ID, "stream_id": streamID}).Debug("results stream opened")
	defer log.WithFields(log.Fields{"stream_id": streamID}).Debug("results stream closed")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// Initial snapshot so the viewer has something before the first vote.
	if result, err := computeTally(h.db, election.ID); err == nil {
		c.SSEvent("results", result)
		c.Writer.Flush()
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case _, ok := <-flush:
			if !ok {
				return false
			}
			result, err := computeTally(h.db, election.ID)
			if err != nil {
				log.Errorf("stream tally failed: %v", err)
				return false
			}
			c.SSEvent("results", result)
			return true
		}
	})
}
