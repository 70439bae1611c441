package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/teamsync/scheduler-backend/internal/config"
	"github.com/teamsync/scheduler-backend/internal/database"
	"github.com/teamsync/scheduler-backend/internal/models"
	"github.com/teamsync/scheduler-backend/internal/services"
	"github.com/teamsync/scheduler-backend/internal/utils"
	"github.com/teamsync/scheduler-backend/pkg/jwt"
	"github.com/teamsync/scheduler-backend/pkg/validator"
)

// EmployeeVerificationExpiry is how long an employee activation link stays valid
const EmployeeVerificationExpiry = 24 * time.Hour

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 8

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	jwtService       *jwt.Service
	otpService       *services.OTPService
	rateLimitService *services.RateLimitService
	auditService     *services.AuditService
	notifier         *services.NotificationService
	emailValidator   *validator.EmailValidator
	managerRepo      *database.ManagerRepository
	employeeRepo     *database.EmployeeRepository
	adminRepo        *database.AdminRepository
	refreshTokenRepo *database.RefreshTokenRepository
	config           *config.Config
	logger           *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	jwtService *jwt.Service,
	otpService *services.OTPService,
	rateLimitService *services.RateLimitService,
	auditService *services.AuditService,
	notifier *services.NotificationService,
	emailValidator *validator.EmailValidator,
	managerRepo *database.ManagerRepository,
	employeeRepo *database.EmployeeRepository,
	adminRepo *database.AdminRepository,
	refreshTokenRepo *database.RefreshTokenRepository,
	cfg *config.Config,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		jwtService:       jwtService,
		otpService:       otpService,
		rateLimitService: rateLimitService,
		auditService:     auditService,
		notifier:         notifier,
		emailValidator:   emailValidator,
		managerRepo:      managerRepo,
		employeeRepo:     employeeRepo,
		adminRepo:        adminRepo,
		refreshTokenRepo: refreshTokenRepo,
		config:           cfg,
		logger:           logger,
	}
}

// ManagerSignupRequest represents a manager registration request
type ManagerSignupRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Name        string `json:"name" binding:"required"`
	CompanyName string `json:"company_name" binding:"required"`
	CompanySize string `json:"company_size"`
	Phone       string `json:"phone"`
}

// VerifyEmailRequest carries the signup OTP
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// LoginRequest represents a password login request for any account kind
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	UserType string `json:"user_type" binding:"required"`
}

// VerifyLoginRequest carries the login OTP
type VerifyLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	OTP      string `json:"otp" binding:"required"`
	UserType string `json:"user_type" binding:"required"`
}

// RefreshTokenRequest carries the refresh token to rotate
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// VerifyEmployeeRequest activates an employee account
type VerifyEmployeeRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the token pair returned after successful authentication
type TokenResponse struct {
	Message      string      `json:"message"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in_seconds"`
	UserType     string      `json:"user_type"`
	User         interface{} `json:"user"`
}

// ManagerSignup handles POST /api/v1/auth/manager/signup
func (h *AuthHandler) ManagerSignup(c *gin.Context) {
	var req ManagerSignupRequest
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

	if len(req.Password) < MinPasswordLength {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "weak_password",
			Message: "Password must be at least 8 characters",
		})
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	if !h.checkOTPRateLimit(c, email, clientIP, userAgent) {
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.config.Security.BcryptCost)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	manager, err := h.managerRepo.CreateManager(email, string(passwordHash), req.Name, req.CompanyName, req.CompanySize, req.Phone, "")
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "conflict",
				Message: "An account with this email already exists",
				Code:    "already_exists",
			})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	h.sendOTP(c, email, services.OTPPurposeSignup, clientIP, userAgent)

	c.JSON(http.StatusCreated, gin.H{
		"message":            "Account created. A verification code has been sent to your email.",
		"manager":            manager.Summary(),
		"otp_expires_in":     int(services.OTPExpiryDuration.Seconds()),
		"requires_approval":  true,
		"verification_email": email,
	})
}

// VerifyEmail handles POST /api/v1/auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	email := h.emailValidator.Normalize(req.Email)
	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	if !h.validateOTP(c, email, services.OTPPurposeSignup, req.OTP, clientIP, userAgent) {
		return
	}

	manager, err := h.managerRepo.GetManagerByEmail(email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if manager == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "No account found for this email",
		})
		return
	}

	if !manager.IsVerified {
		if err := h.managerRepo.MarkVerified(manager.ID); err != nil {
			respondError(c, h.logger, err)
			return
		}
		manager.IsVerified = true
	}

	h.auditService.LogOTPVerification(&manager.ID, models.UserTypeManager, email, true, clientIP, userAgent, "")

	h.issueTokens(c, manager.ID, email, models.UserTypeManager, manager, "Email verified")
}

// Login handles POST /api/v1/auth/login. A successful password check emails
// a login OTP; tokens are only issued by VerifyLogin.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	userType := models.UserType(req.UserType)
	if !userType.IsValid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "user_type must be manager, employee or admin",
		})
		return
	}

	email := h.emailValidator.Normalize(req.Email)
	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	userID, passwordHash, err := h.lookupCredentials(email, userType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if userID == nil || bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		h.auditService.LogLogin(userID, userType, email, false, clientIP, userAgent, "invalid_credentials")
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid email or password",
		})
		return
	}

	if !h.checkAccountState(c, email, userType, clientIP, userAgent, userID) {
		return
	}

	if !h.checkOTPRateLimit(c, email, clientIP, userAgent) {
		return
	}

	h.sendOTP(c, email, services.OTPPurposeLogin, clientIP, userAgent)

	c.JSON(http.StatusOK, gin.H{
		"message":        "A login code has been sent to your email.",
		"otp_expires_in": int(services.OTPExpiryDuration.Seconds()),
	})
}

// VerifyLogin handles POST /api/v1/auth/verify-login
func (h *AuthHandler) VerifyLogin(c *gin.Context) {
	var req VerifyLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	userType := models.UserType(req.UserType)
	if !userType.IsValid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "user_type must be manager, employee or admin",
		})
		return
	}

	email := h.emailValidator.Normalize(req.Email)
	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	if !h.validateOTP(c, email, services.OTPPurposeLogin, req.OTP, clientIP, userAgent) {
		return
	}

	switch userType {
	case models.UserTypeManager:
		manager, err := h.managerRepo.GetManagerByEmail(email)
		if err != nil || manager == nil {
			h.respondLoginLookupFailure(c, err)
			return
		}
		h.auditService.LogLogin(&manager.ID, userType, email, true, clientIP, userAgent, "")
		h.issueTokens(c, manager.ID, email, userType, manager, "Login successful")
	case models.UserTypeEmployee:
		employee, err := h.employeeRepo.GetEmployeeByEmail(email)
		if err != nil || employee == nil {
			h.respondLoginLookupFailure(c, err)
			return
		}
		h.auditService.LogLogin(&employee.ID, userType, email, true, clientIP, userAgent, "")
		h.issueTokens(c, employee.ID, email, userType, employee, "Login successful")
	case models.UserTypeAdmin:
		admin, err := h.adminRepo.GetAdminByEmail(email)
		if err != nil || admin == nil {
			h.respondLoginLookupFailure(c, err)
			return
		}
		h.auditService.LogLogin(&admin.ID, userType, email, true, clientIP, userAgent, "")
		h.issueTokens(c, admin.ID, email, userType, admin, "Login successful")
	}
}

// RefreshToken handles POST /api/v1/auth/refresh-token. Tokens are rotated:
// the presented refresh token is revoked and a new pair is issued.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired refresh token",
		})
		return
	}

	stored, err := h.refreshTokenRepo.GetRefreshToken(req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if stored == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Refresh token not recognized",
		})
		return
	}

	if stored.Revoked {
		// Reuse of a revoked token points at token theft. Revoke the
		// whole family for this user.
		if err := h.refreshTokenRepo.RevokeAllForUser(stored.UserID); err != nil {
			h.logger.WithError(err).Warn("Failed to revoke token family after reuse")
		}
		h.auditService.LogTokenRefresh(stored.UserID, stored.UserType, false, clientIP, userAgent)
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Refresh token has been revoked",
		})
		return
	}

	if time.Now().After(stored.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "token_expired",
			Message: "Refresh token has expired",
		})
		return
	}

	if err := h.refreshTokenRepo.MarkUsed(req.RefreshToken); err != nil {
		h.logger.WithError(err).Warn("Failed to mark refresh token used")
	}
	if err := h.refreshTokenRepo.RevokeToken(req.RefreshToken); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.auditService.LogTokenRefresh(claims.UserID, models.UserType(claims.UserType), true, clientIP, userAgent)

	h.issueTokens(c, claims.UserID, claims.Email, models.UserType(claims.UserType), nil, "Token refreshed")
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if err := h.refreshTokenRepo.RevokeToken(req.RefreshToken); err != nil {
		respondError(c, h.logger, err)
		return
	}

	if claims, err := h.jwtService.ExtractClaims(req.RefreshToken); err == nil {
		h.auditService.LogLogout(claims.UserID, models.UserType(claims.UserType), utils.GetRealIP(c), utils.GetUserAgent(c))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}

// VerifyEmployee handles POST /api/v1/auth/employee/verify. The employee
// sets a password through the emailed activation link.
func (h *AuthHandler) VerifyEmployee(c *gin.Context) {
	var req VerifyEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if len(req.Password) < MinPasswordLength {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "weak_password",
			Message: "Password must be at least 8 characters",
		})
		return
	}

	employee, err := h.employeeRepo.GetEmployeeByVerificationToken(req.Token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if employee == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_token",
			Message: "Verification link is invalid or already used",
		})
		return
	}

	if !employee.VerificationSentAt.Valid ||
		time.Now().After(employee.VerificationSentAt.Time.Add(EmployeeVerificationExpiry)) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "token_expired",
			Message: "Verification link has expired. Ask your manager to re-invite you.",
		})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.config.Security.BcryptCost)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.employeeRepo.VerifyEmployee(employee.ID, string(passwordHash)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	employee.IsVerified = true

	h.issueTokens(c, employee.ID, employee.Email, models.UserTypeEmployee, employee, "Account activated")
}

// lookupCredentials resolves the stored password hash for a login attempt.
// A nil userID with no error means the account does not exist or cannot log
// in yet; callers respond with the generic invalid-credentials message.
func (h *AuthHandler) lookupCredentials(email string, userType models.UserType) (*uuid.UUID, string, error) {
	switch userType {
	case models.UserTypeManager:
		manager, err := h.managerRepo.GetManagerByEmail(email)
		if err != nil || manager == nil {
			return nil, "", err
		}
		return &manager.ID, manager.PasswordHash, nil
	case models.UserTypeEmployee:
		employee, err := h.employeeRepo.GetEmployeeByEmail(email)
		if err != nil || employee == nil || !employee.PasswordHash.Valid {
			return nil, "", err
		}
		return &employee.ID, employee.PasswordHash.String, nil
	case models.UserTypeAdmin:
		admin, err := h.adminRepo.GetAdminByEmail(email)
		if err != nil || admin == nil {
			return nil, "", err
		}
		return &admin.ID, admin.PasswordHash, nil
	}
	return nil, "", nil
}

// checkAccountState enforces verification and approval gates before a login
// OTP is issued. Returns false after writing the response. An unverified
// manager with a correct password gets a fresh signup code.
func (h *AuthHandler) checkAccountState(c *gin.Context, email string, userType models.UserType, clientIP, userAgent string, userID *uuid.UUID) bool {
	switch userType {
	case models.UserTypeManager:
		manager, err := h.managerRepo.GetManagerByEmail(email)
		if err != nil || manager == nil {
			h.respondLoginLookupFailure(c, err)
			return false
		}
		if !manager.IsVerified {
			h.auditService.LogLogin(userID, userType, email, false, clientIP, userAgent, "email_not_verified")
			// The signup code may have expired by now. The password already
			// checked out, so issue a fresh one instead of dead-ending.
			if !h.checkOTPRateLimit(c, email, clientIP, userAgent) {
				return false
			}
			h.sendOTP(c, email, services.OTPPurposeSignup, clientIP, userAgent)
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "email_not_verified",
				Message: "Verify your email before logging in. A new verification code has been sent.",
			})
			return false
		}
		if !manager.IsApproved {
			h.auditService.LogLogin(userID, userType, email, false, clientIP, userAgent, "pending_approval")
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "pending_approval",
				Message: "Your account is awaiting admin approval",
			})
			return false
		}
	case models.UserTypeEmployee:
		employee, err := h.employeeRepo.GetEmployeeByEmail(email)
		if err != nil || employee == nil {
			h.respondLoginLookupFailure(c, err)
			return false
		}
		if !employee.IsVerified {
			h.auditService.LogLogin(userID, userType, email, false, clientIP, userAgent, "account_not_activated")
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "account_not_activated",
				Message: "Activate your account through the emailed link first",
			})
			return false
		}
	}
	return true
}

// checkOTPRateLimit enforces per-email and per-IP OTP limits. Returns false
// after writing the 429 response.
func (h *AuthHandler) checkOTPRateLimit(c *gin.Context, email, clientIP, userAgent string) bool {
	err := h.rateLimitService.CheckOTPRateLimit(email, clientIP)
	if err == nil {
		return true
	}

	var rateLimitErr *services.RateLimitError
	if errors.As(err, &rateLimitErr) {
		h.auditService.LogRateLimitViolation(email, clientIP, userAgent, rateLimitErr.Type, rateLimitErr.RetryAfter)
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate_limit_exceeded",
			"message":     rateLimitErr.Message,
			"retry_after": rateLimitErr.RetryAfter,
			"type":        rateLimitErr.Type,
		})
		return false
	}

	respondError(c, h.logger, err)
	return false
}

// sendOTP generates and emails an OTP, recording the request for rate
// limiting and auditing
func (h *AuthHandler) sendOTP(c *gin.Context, email, purpose, clientIP, userAgent string) {
	otp, err := h.otpService.GenerateOTP(email, purpose, clientIP, userAgent)
	if err != nil {
		h.auditService.LogOTPRequest(email, purpose, clientIP, userAgent, false, "generation_failed")
		h.logger.WithError(err).Error("Failed to generate OTP")
		return
	}

	if err := h.rateLimitService.RecordOTPRequest(email, clientIP); err != nil {
		h.logger.WithError(err).Warn("Failed to record OTP request")
	}

	h.auditService.LogOTPRequest(email, purpose, clientIP, userAgent, true, "")
	h.notifier.SendOTP(email, otp, purpose)
}

// validateOTP checks an OTP and writes the error response on failure
func (h *AuthHandler) validateOTP(c *gin.Context, email, purpose, otp, clientIP, userAgent string) bool {
	valid, err := h.otpService.ValidateOTP(email, purpose, otp)
	if valid {
		return true
	}

	reason := "invalid"
	status := http.StatusBadRequest
	message := "Invalid verification code"

	switch {
	case errors.Is(err, services.ErrNoOTPFound):
		reason = "not_found"
		message = "No verification code found. Request a new one."
	case errors.Is(err, services.ErrOTPExpired):
		reason = "expired"
		message = "Verification code has expired. Request a new one."
	case errors.Is(err, services.ErrMaxAttemptsExceeded):
		reason = "max_attempts"
		status = http.StatusTooManyRequests
		message = "Too many failed attempts. Request a new code."
	case errors.Is(err, services.ErrOTPAlreadyUsed):
		reason = "already_used"
		message = "This code has already been used. Request a new one."
	case errors.Is(err, services.ErrOTPInvalid):
		reason = "mismatch"
	default:
		respondError(c, h.logger, err)
		return false
	}

	h.auditService.LogOTPVerification(nil, "", email, false, clientIP, userAgent, reason)

	c.JSON(status, ErrorResponse{
		Error:   "invalid_otp",
		Message: message,
	})
	return false
}

// issueTokens generates and stores a token pair and writes the success
// response with the user payload
func (h *AuthHandler) issueTokens(c *gin.Context, userID uuid.UUID, email string, userType models.UserType, user interface{}, message string) {
	accessToken, err := h.jwtService.GenerateAccessToken(userID, email, string(userType))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(userID, email, string(userType))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	expiresAt := time.Now().Add(h.jwtService.RefreshTokenExpiry())
	if err := h.refreshTokenRepo.StoreRefreshToken(userID, userType, refreshToken, utils.GetRealIP(c), utils.GetUserAgent(c), expiresAt); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		Message:      message,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(h.jwtService.AccessTokenExpiry().Seconds()),
		UserType:     string(userType),
		User:         user,
	})
}

// respondLoginLookupFailure handles the rare case where the account
// disappears between the password step and the OTP step
func (h *AuthHandler) respondLoginLookupFailure(c *gin.Context, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "invalid_credentials",
		Message: "Invalid email or password",
	})
}
