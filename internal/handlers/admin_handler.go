package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/teamsync/scheduler-backend/internal/database"
	"github.com/teamsync/scheduler-backend/internal/services"
)

// AdminHandler handles the platform administration surface
type AdminHandler struct {
	adminRepo   *database.AdminRepository
	managerRepo *database.ManagerRepository
	notifier    *services.NotificationService
	logger      *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	adminRepo *database.AdminRepository,
	managerRepo *database.ManagerRepository,
	notifier *services.NotificationService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		adminRepo:   adminRepo,
		managerRepo: managerRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// ManagerApprovalRequest carries the admin decision on a manager signup
type ManagerApprovalRequest struct {
	Approved        *bool  `json:"approved" binding:"required"`
	RejectionReason string `json:"rejection_reason"`
}

// ListManagerRequests handles GET /api/v1/admin/managers/requests
func (h *AdminHandler) ListManagerRequests(c *gin.Context) {
	page, limit := parsePagination(c)

	managers, total, err := h.managerRepo.ListManagers(false, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"managers":   managers,
		"pagination": NewPaginationMeta(page, limit, total),
	})
}

// ListManagers handles GET /api/v1/admin/managers
func (h *AdminHandler) ListManagers(c *gin.Context) {
	page, limit := parsePagination(c)

	managers, total, err := h.managerRepo.ListManagers(true, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"managers":   managers,
		"pagination": NewPaginationMeta(page, limit, total),
	})
}

// GetManager handles GET /api/v1/admin/managers/:id
func (h *AdminHandler) GetManager(c *gin.Context) {
	managerID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.managerRepo.GetManagerDetail(managerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Manager not found",
		})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// SetManagerApproval handles PUT /api/v1/admin/managers/:id/approval
func (h *AdminHandler) SetManagerApproval(c *gin.Context) {
	managerID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ManagerApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "approved is required",
		})
		return
	}

	if !*req.Approved && strings.TrimSpace(req.RejectionReason) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "A rejection reason is required",
		})
		return
	}

	manager, err := h.managerRepo.GetManagerByID(managerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if manager == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Manager not found",
		})
		return
	}

	if err := h.managerRepo.SetApproval(managerID, *req.Approved, req.RejectionReason); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.notifier.SendManagerApproval(manager.Email, manager.Name, *req.Approved, req.RejectionReason)

	decision := "approved"
	if !*req.Approved {
		decision = "rejected"
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Manager " + decision,
		"approved": *req.Approved,
	})
}

// DeleteManager handles DELETE /api/v1/admin/managers/:id
func (h *AdminHandler) DeleteManager(c *gin.Context) {
	managerID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	manager, err := h.managerRepo.GetManagerByID(managerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if manager == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Manager not found",
		})
		return
	}

	if err := h.managerRepo.DeleteManager(managerID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Manager removed",
	})
}

// DashboardStats handles GET /api/v1/admin/dashboard/stats
func (h *AdminHandler) DashboardStats(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
