package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openballot/backend/internal/models"
)

type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// Overview handles GET /admin/overview: the aggregate numbers behind the
// admin dashboard, plus per-election turnout with the current leader.
func (h *AdminHandler) Overview(c *gin.Context) {
	var totalElections, openElections, totalVotes, totalUsers int64

	if err := h.db.Model(&models.Election{}).Count(&totalElections).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute overview"})
		return
	}
	h.db.Model(&models.Election{}).Where("is_open = ?", true).Count(&openElections)
	h.db.Model(&models.Vote{}).Count(&totalVotes)
	h.db.Model(&models.User{}).Count(&totalUsers)

	var elections []models.Election
	if err := h.db.Order("created_at desc").Find(&elections).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute overview"})
		return
	}

	perElection := make([]gin.H, 0, len(elections))
	for _, e := range elections {
		result, err := computeTally(h.db, e.ID)
		if err != nil {
			log.Errorf("overview tally failed for election %d: %v", e.ID, err)
			continue
		}
		entry := gin.H{
			"id":          e.ID,
			"title":       e.Title,
			"is_open":     e.IsOpen,
			"total_votes": result.TotalVotes,
		}
		if result.Leader != nil {
			entry["leader"] = result.Leader
		}
		perElection = append(perElection, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"total_elections": totalElections,
		"open_elections":  openElections,
		"total_votes":     totalVotes,
		"total_users":     totalUsers,
		"elections":       perElection,
	})
}
