package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/teamsync/scheduler-backend/internal/database"
	"github.com/teamsync/scheduler-backend/internal/middleware"
	"github.com/teamsync/scheduler-backend/internal/models"
	"github.com/teamsync/scheduler-backend/internal/services"
	"github.com/teamsync/scheduler-backend/internal/utils"
	"github.com/teamsync/scheduler-backend/pkg/validator"
)

// DefaultLocationLookbackHours bounds the employee location listing window
const DefaultLocationLookbackHours = 24

// ManagerHandler handles the manager-facing HTTP surface
type ManagerHandler struct {
	managerRepo         *database.ManagerRepository
	employeeRepo        *database.EmployeeRepository
	meetingRepo         *database.MeetingRepository
	locationRepo        *database.LocationRepository
	meetingService      *services.MeetingService
	availabilityService *services.AvailabilityService
	notifier            *services.NotificationService
	emailValidator      *validator.EmailValidator
	logger              *logrus.Logger
}

// NewManagerHandler creates a new manager handler
func NewManagerHandler(
	managerRepo *database.ManagerRepository,
	employeeRepo *database.EmployeeRepository,
	meetingRepo *database.MeetingRepository,
	locationRepo *database.LocationRepository,
	meetingService *services.MeetingService,
	availabilityService *services.AvailabilityService,
	notifier *services.NotificationService,
	emailValidator *validator.EmailValidator,
	logger *logrus.Logger,
) *ManagerHandler {
	return &ManagerHandler{
		managerRepo:         managerRepo,
		employeeRepo:        employeeRepo,
		meetingRepo:         meetingRepo,
		locationRepo:        locationRepo,
		meetingService:      meetingService,
		availabilityService: availabilityService,
		notifier:            notifier,
		emailValidator:      emailValidator,
		logger:              logger,
	}
}

// UpdateProfileRequest carries the editable profile fields. Empty fields
// keep their current value.
type UpdateProfileRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	ProfilePicture string `json:"profile_picture"`
}

// CreateEmployeeRequest adds an employee under the calling manager
type CreateEmployeeRequest struct {
	Email      string `json:"email" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// CreateMeetingRequest schedules a meeting with a fixed date
type CreateMeetingRequest struct {
	Title           string      `json:"title" binding:"required"`
	Description     string      `json:"description"`
	Date            time.Time   `json:"date" binding:"required"`
	DurationMinutes int         `json:"duration_minutes" binding:"required"`
	Location        string      `json:"location"`
	EmployeeIDs     []uuid.UUID `json:"employee_ids" binding:"required"`
}

// UpdateMeetingStatusRequest moves a meeting through the state machine
type UpdateMeetingStatusRequest struct {
	Status          string `json:"status" binding:"required"`
	RejectionReason string `json:"rejection_reason"`
}

// SelectMeetingDateRequest fixes one of the proposed dates
type SelectMeetingDateRequest struct {
	Date time.Time `json:"date" binding:"required"`
}

// GetProfile handles GET /api/v1/manager/profile
func (h *ManagerHandler) GetProfile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	manager, err := h.managerRepo.GetManagerByID(userCtx.UserID)
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

	c.JSON(http.StatusOK, manager)
}

// UpdateProfile handles PUT /api/v1/manager/profile
func (h *ManagerHandler) UpdateProfile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if err := h.managerRepo.UpdateProfile(userCtx.UserID, req.Name, req.Phone, req.ProfilePicture); err != nil {
		respondError(c, h.logger, err)
		return
	}

	manager, err := h.managerRepo.GetManagerByID(userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, manager)
}

// CreateEmployee handles POST /api/v1/manager/employees
func (h *ManagerHandler) CreateEmployee(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	email, err := h.emailValidator.Validate(req.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_email",
			Message: err.Error(),
		})
		return
	}

	token, err := utils.GenerateVerificationToken()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	employee, err := h.employeeRepo.CreateEmployee(userCtx.UserID, email, req.Name, req.Role, req.Department, token)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "conflict",
				Message: "An employee with this email already exists",
				Code:    "already_exists",
			})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	manager, err := h.managerRepo.GetManagerByID(userCtx.UserID)
	if err == nil && manager != nil {
		h.notifier.SendEmployeeVerification(email, req.Name, manager.Name, token)
	}

	c.JSON(http.StatusCreated, employee)
}

// ListEmployees handles GET /api/v1/manager/employees
func (h *ManagerHandler) ListEmployees(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	page, limit := parsePagination(c)
	search := c.Query("search")

	employees, total, err := h.employeeRepo.ListEmployees(userCtx.UserID, page, limit, search)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"employees":  employees,
		"pagination": NewPaginationMeta(page, limit, total),
	})
}

// GetEmployee handles GET /api/v1/manager/employees/:id
func (h *ManagerHandler) GetEmployee(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	employeeID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	employee, err := h.employeeRepo.GetEmployeeForManager(employeeID, userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if employee == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Employee not found",
		})
		return
	}

	c.JSON(http.StatusOK, employee)
}

// DeleteEmployee handles DELETE /api/v1/manager/employees/:id
func (h *ManagerHandler) DeleteEmployee(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	employeeID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.employeeRepo.DeleteEmployee(employeeID, userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Employee not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Employee removed",
	})
}

// EmployeeLocations handles GET /api/v1/manager/employees/locations
func (h *ManagerHandler) EmployeeLocations(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	hours, err := strconv.Atoi(c.DefaultQuery("hours", strconv.Itoa(DefaultLocationLookbackHours)))
	if err != nil || hours < 1 {
		hours = DefaultLocationLookbackHours
	}

	locations, err := h.locationRepo.LatestLocations(userCtx.UserID, time.Duration(hours)*time.Hour)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"locations":      locations,
		"lookback_hours": hours,
	})
}

// CreateMeeting handles POST /api/v1/manager/meetings
func (h *ManagerHandler) CreateMeeting(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	meeting, err := h.meetingService.CreateManagerMeeting(userCtx.UserID, services.CreateMeetingInput{
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		EmployeeIDs:     req.EmployeeIDs,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, meeting)
}

// ListMeetings handles GET /api/v1/manager/meetings
func (h *ManagerHandler) ListMeetings(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	page, limit := parsePagination(c)

	status := models.MeetingStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Unknown meeting status",
		})
		return
	}

	var employeeID *uuid.UUID
	if raw := c.Query("employee_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "employee_id must be a valid UUID",
			})
			return
		}
		employeeID = &id
	}

	meetings, total, err := h.meetingRepo.ListManagerMeetings(userCtx.UserID, status, employeeID, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result := make([]models.MeetingWithEmployees, 0, len(meetings))
	for _, meeting := range meetings {
		attendees, err := h.meetingRepo.GetMeetingEmployees(meeting.ID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		result = append(result, models.MeetingWithEmployees{Meeting: meeting, Employees: attendees})
	}

	c.JSON(http.StatusOK, gin.H{
		"meetings":   result,
		"pagination": NewPaginationMeta(page, limit, total),
	})
}

// UpdateMeetingStatus handles PUT /api/v1/manager/meetings/:id/status
func (h *ManagerHandler) UpdateMeetingStatus(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	meetingID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateMeetingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	meeting, err := h.meetingService.UpdateStatus(userCtx.UserID, meetingID, models.MeetingStatus(req.Status), req.RejectionReason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, meeting)
}

// SelectMeetingDate handles PUT /api/v1/manager/meetings/:id/select-date
func (h *ManagerHandler) SelectMeetingDate(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	meetingID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req SelectMeetingDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	meeting, err := h.meetingService.SelectMeetingDate(userCtx.UserID, meetingID, req.Date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, meeting)
}

// CancelMeeting handles POST /api/v1/manager/meetings/:id/cancel
func (h *ManagerHandler) CancelMeeting(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	meetingID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	meeting, err := h.meetingService.Cancel(userCtx.UserID, models.CreatorTypeManager, meetingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, meeting)
}

// Availability handles GET /api/v1/manager/availability
func (h *ManagerHandler) Availability(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	start, end, ok := parseDateRange(c)
	if !ok {
		return
	}

	availability, err := h.availabilityService.GetManagerAvailability(userCtx.UserID, start, end)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, availability)
}

// parseUUIDParam parses a UUID path parameter, writing the 400 on failure
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: name + " must be a valid UUID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// parseDateRange parses start_date and end_date query parameters (YYYY-MM-DD)
func parseDateRange(c *gin.Context) (start, end time.Time, ok bool) {
	const layout = "2006-01-02"

	start, err := time.Parse(layout, c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "start_date must be in YYYY-MM-DD format",
		})
		return time.Time{}, time.Time{}, false
	}

	end, err = time.Parse(layout, c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "end_date must be in YYYY-MM-DD format",
		})
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}
