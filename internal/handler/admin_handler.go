package handler

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/internal/service"
	"github.com/Baaaki/apartment-booking/pkg/apperr"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IPBanner manages the IP ban list enforced by the rate limiter.
type IPBanner interface {
	BanIP(ctx context.Context, ip string) error
	UnbanIP(ctx context.Context, ip string) error
}

type AdminHandler struct {
	users  *service.UserService
	events *service.EventRecorder
	bans   IPBanner
}

func NewAdminHandler(users *service.UserService, events *service.EventRecorder, bans IPBanner) *AdminHandler {
	return &AdminHandler{
		users:  users,
		events: events,
		bans:   bans,
	}
}

// Request types
type UpdateRoleRequest struct {
	Role models.Role `json:"role" binding:"required,oneof=user admin"`
}

type BanIPRequest struct {
	IP     string `json:"ip" binding:"required,ip"`
	Reason string `json:"reason"`
}

// ListUsers returns all users (including blocked ones)
// GET /api/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, err := h.users.List(c.Request.Context(), actorFrom(c), models.Role(c.Query("role")), parsePage(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page)
}

// GetUser returns one user
// GET /api/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateRole promotes or demotes a user
// PUT /api/users/:id/role
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.UpdateRole(c.Request.Context(), actorFrom(c), id, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User role updated successfully",
		"user":    user,
	})
}

// BlockUser soft-deletes a user
// PUT /api/users/:id/block, DELETE /api/users/:id
func (h *AdminHandler) BlockUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	logger.Log.Info("Admin blocking user",
		zap.Uint("admin_id", c.GetUint("user_id")),
		zap.Uint("target_user_id", id),
	)

	if err := h.users.Block(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User blocked successfully"})
}

// UnblockUser lifts a block
// PUT /api/users/:id/unblock, PUT /api/users/:id/reactivate
func (h *AdminHandler) UnblockUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Reactivate(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User reactivated successfully"})
}

// Activity returns the newest journal entries
// GET /api/admin/activity?limit=
func (h *AdminHandler) Activity(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		respondError(c, apperr.Validation("invalid limit",
			apperr.FieldError{Field: "limit", Message: "limit must be between 1 and 500"},
		))
		return
	}

	entries, err := h.events.Recent(limit)
	if err != nil {
		respondError(c, apperr.Internal(err, "failed to read activity"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// BanIP blocks an address at the rate limiter
// POST /api/admin/ip-bans
func (h *AdminHandler) BanIP(c *gin.Context) {
	var req BanIPRequest
	if !bindJSON(c, &req) {
		return
	}

	logger.Log.Info("Admin banning IP",
		zap.Uint("admin_id", c.GetUint("user_id")),
		zap.String("ip", req.IP),
		zap.String("reason", req.Reason),
	)

	if err := h.bans.BanIP(c.Request.Context(), req.IP); err != nil {
		respondError(c, apperr.Internal(err, "failed to ban ip"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "IP banned successfully"})
}

// UnbanIP removes an address from the ban list
// DELETE /api/admin/ip-bans/:ip
func (h *AdminHandler) UnbanIP(c *gin.Context) {
	ip := c.Param("ip")
	if net.ParseIP(ip) == nil {
		respondError(c, apperr.Validation("invalid ip",
			apperr.FieldError{Field: "ip", Message: "ip must be a valid address"},
		))
		return
	}
	if err := h.bans.UnbanIP(c.Request.Context(), ip); err != nil {
		respondError(c, apperr.Internal(err, "failed to unban ip"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "IP unbanned successfully"})
}
