package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/openballot/backend/internal/middleware"
	"github.com/openballot/backend/internal/models"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetUsers lists all accounts (admin only).
func (h *UserHandler) GetUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.Order("created_at desc").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, users)
}

// ChangeRole handles PUT /users/:id/role (admin only). Self-service
// promotion is deliberately not exposed: the only way to become an admin
// is for an existing admin to grant it. An admin also cannot demote
// themselves, which keeps at least one admin reachable.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.ChangeRoleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be admin or voter"})
		return
	}

	var user models.User
	if err := h.db.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.ID == principal.ID && input.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Admins cannot demote themselves"})
		return
	}

	if err := h.db.Model(&user).Update("role", input.Role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role": input.Role, "by": principal.ID}).Info("role changed")

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"role":     input.Role,
	})
}
