package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/teamsync/scheduler-backend/internal/database"
	"github.com/teamsync/scheduler-backend/internal/middleware"
	"github.com/teamsync/scheduler-backend/internal/models"
	"github.com/teamsync/scheduler-backend/internal/services"
)

// EmployeeHandler handles the employee-facing HTTP surface
type EmployeeHandler struct {
	employeeRepo        *database.EmployeeRepository
	managerRepo         *database.ManagerRepository
	meetingRepo         *database.MeetingRepository
	locationRepo        *database.LocationRepository
	meetingService      *services.MeetingService
	availabilityService *services.AvailabilityService
	logger              *logrus.Logger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(
	employeeRepo *database.EmployeeRepository,
	managerRepo *database.ManagerRepository,
	meetingRepo *database.MeetingRepository,
	locationRepo *database.LocationRepository,
	meetingService *services.MeetingService,
	availabilityService *services.AvailabilityService,
	logger *logrus.Logger,
) *EmployeeHandler {
	return &EmployeeHandler{
		employeeRepo:        employeeRepo,
		managerRepo:         managerRepo,
		meetingRepo:         meetingRepo,
		locationRepo:        locationRepo,
		meetingService:      meetingService,
		availabilityService: availabilityService,
		logger:              logger,
	}
}

// RecordLocationRequest appends a location report. The timestamp is always
// assigned server-side.
type RecordLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Address   string   `json:"address"`
}

// RequestMeetingRequest files a meeting request with candidate dates
type RequestMeetingRequest struct {
	Title           string      `json:"title" binding:"required"`
	Description     string      `json:"description"`
	DurationMinutes int         `json:"duration_minutes" binding:"required"`
	Location        string      `json:"location"`
	ProposedDates   []time.Time `json:"proposed_dates" binding:"required"`
}

// loadEmployee resolves the calling employee, writing the 404 on failure
func (h *EmployeeHandler) loadEmployee(c *gin.Context) (*models.Employee, bool) {
	userCtx := middleware.MustGetUserContext(c)

	employee, err := h.employeeRepo.GetEmployeeByID(userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	if employee == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Employee not found",
		})
		return nil, false
	}

	return employee, true
}

// GetProfile handles GET /api/v1/employee/profile
func (h *EmployeeHandler) GetProfile(c *gin.Context) {
	employee, ok := h.loadEmployee(c)
	if !ok {
		return
	}

	response := gin.H{
		"employee": employee,
	}

	manager, err := h.managerRepo.GetManagerByID(employee.ManagerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if manager != nil {
		response["manager"] = manager.Summary()
	}

	c.JSON(http.StatusOK, response)
}

// UpdateProfile handles PUT /api/v1/employee/profile
func (h *EmployeeHandler) UpdateProfile(c *gin.Context) {
	employee, ok := h.loadEmployee(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if err := h.employeeRepo.UpdateProfile(employee.ID, req.Name, req.Phone, req.ProfilePicture); err != nil {
		respondError(c, h.logger, err)
		return
	}

	updated, err := h.employeeRepo.GetEmployeeByID(employee.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// GetManager handles GET /api/v1/employee/manager
func (h *EmployeeHandler) GetManager(c *gin.Context) {
	employee, ok := h.loadEmployee(c)
	if !ok {
		return
	}

	manager, err := h.managerRepo.GetManagerByID(employee.ManagerID)
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

	c.JSON(http.StatusOK, manager.Summary())
}

// RecordLocation handles POST /api/v1/employee/locations
func (h *EmployeeHandler) RecordLocation(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req RecordLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "latitude and longitude are required",
		})
		return
	}

	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Coordinates are out of range",
		})
		return
	}

	location, err := h.locationRepo.RecordLocation(userCtx.UserID, *req.Latitude, *req.Longitude, req.Address)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, location)
}

// RequestMeeting handles POST /api/v1/employee/meetings
func (h *EmployeeHandler) RequestMeeting(c *gin.Context) {
	employee, ok := h.loadEmployee(c)
	if !ok {
		return
	}

	var req RequestMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	meeting, err := h.meetingService.RequestMeeting(employee, services.RequestMeetingInput{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		ProposedDates:   req.ProposedDates,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, meeting)
}

// ListMeetings handles GET /api/v1/employee/meetings. Proposed dates are
// attached to the employee's own pending requests.
func (h *EmployeeHandler) ListMeetings(c *gin.Context) {
	employee, ok := h.loadEmployee(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)

	status := models.MeetingStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Unknown meeting status",
		})
		return
	}

	meetings, total, err := h.meetingRepo.ListEmployeeMeetings(employee.ID, status, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	manager, err := h.managerRepo.GetManagerByID(employee.ManagerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result := make([]models.MeetingWithDetails, 0, len(meetings))
	for _, meeting := range meetings {
		detail := models.MeetingWithDetails{Meeting: meeting}
		if manager != nil {
			detail.Manager = manager.Summary()
		}

		if meeting.IsCreator(employee.ID, models.CreatorTypeEmployee) {
			dates, err := h.meetingRepo.GetProposedDates(meeting.ID)
			if err != nil {
				respondError(c, h.logger, err)
				return
			}
			detail.ProposedDates = dates
		}

		result = append(result, detail)
	}

	c.JSON(http.StatusOK, gin.H{
		"meetings":   result,
		"pagination": NewPaginationMeta(page, limit, total),
	})
}

// CancelMeeting handles POST /api/v1/employee/meetings/:id/cancel
func (h *EmployeeHandler) CancelMeeting(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	meetingID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	meeting, err := h.meetingService.Cancel(userCtx.UserID, models.CreatorTypeEmployee, meetingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, meeting)
}

// ManagerAvailability handles GET /api/v1/employee/manager/availability
func (h *EmployeeHandler) ManagerAvailability(c *gin.Context) {
	employee, ok := h.loadEmployee(c)
	if !ok {
		return
	}

	start, end, rangeOK := parseDateRange(c)
	if !rangeOK {
		return
	}

	availability, err := h.availabilityService.GetManagerAvailability(employee.ManagerID, start, end)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, availability)
}
