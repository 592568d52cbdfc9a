package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hackfest/registration-backend/internal/auth"
	"github.com/hackfest/registration-backend/internal/model"
	"github.com/hackfest/registration-backend/internal/service"
	"github.com/hackfest/registration-backend/pkg/logger"
)

type Handler struct {
	registrations *service.RegistrationService
	admins        *service.AdminService

	healthChecker HealthChecker

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithRegistrationService(s *service.RegistrationService) *Handler {
	h.registrations = s
	return h
}

func (h *Handler) WithAdminService(s *service.AdminService) *Handler {
	h.admins = s
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if h.healthChecker != nil {
		e.GET("/health", h.healthChecker.HealthCheck())
	}

	e.POST("/api/register", h.Register)
	e.POST("/api/verify-payment", h.VerifyPayment)
	e.POST("/api/login", h.Login)
	e.GET("/logout", h.Logout)
	e.POST("/api/admin/register", h.RegisterAdmin)

	adminSecurity := e.Group("", SessionMiddleware())

	adminSecurity.GET("/api/registrations", h.ListRegistrations)
	adminSecurity.GET("/admin/dashboard", h.ListRegistrations)
}

func (h *Handler) Register(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	reg := &model.Registration{}

	if err := h.decodeRequest(e, reg); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("registering team", zap.String("team_name", reg.TeamName))

	checkout, err := h.registrations.Register(e.Request().Context(), reg)
	if err != nil {
		l.Error("failed to register team", zap.String("team_name", reg.TeamName), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, struct {
		Message  string `json:"message"`
		OrderID  string `json:"orderId"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Key      string `json:"key"`
	}{
		Message:  "Registration successful",
		OrderID:  checkout.OrderID,
		Amount:   checkout.Amount,
		Currency: checkout.Currency,
		Key:      checkout.Key,
	})
}

func (h *Handler) VerifyPayment(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	// Field names fixed by the gateway's callback contract.
	var req struct {
		OrderID   string `json:"razorpay_order_id" validate:"required"`
		PaymentID string `json:"razorpay_payment_id" validate:"required"`
		Signature string `json:"razorpay_signature" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return e.JSON(http.StatusBadRequest, verifyResponse{Success: false, Message: "Payment verification failed"})
	}

	l.Info("verifying payment", zap.String("order_id", req.OrderID))

	_, err := h.registrations.VerifyPayment(e.Request().Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		l.Warn("payment verification failed", zap.String("order_id", req.OrderID), zap.Any("error", err))
		if err.Code == service.ErrorCodeSignatureMismatch {
			return e.JSON(http.StatusBadRequest, verifyResponse{Success: false, Message: "Payment verification failed"})
		}
		return e.JSON(http.StatusInternalServerError, verifyResponse{Success: false, Message: "Error verifying payment"})
	}

	return e.JSON(http.StatusOK, verifyResponse{Success: true, Message: "Payment verified successfully"})
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) ListRegistrations(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	regs, err := h.registrations.ListRegistrations(e.Request().Context())
	if err != nil {
		l.Error("failed to list registrations", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, regs)
}

func (h *Handler) Login(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("admin login attempt", zap.String("username", req.Username))

	token, err := h.admins.Login(e.Request().Context(), req.Username, req.Password)
	if err != nil {
		l.Warn("login failed", zap.String("username", req.Username), zap.Any("error", err))
		return h.transportError(e, err)
	}

	e.SetCookie(auth.NewSessionCookie(token, h.admins.SessionTTL()))

	return e.JSON(http.StatusOK, echo.Map{"message": "Login successful"})
}

func (h *Handler) Logout(e echo.Context) error {
	e.SetCookie(auth.ExpiredSessionCookie())
	return e.JSON(http.StatusOK, echo.Map{"message": "Logout successful"})
}

func (h *Handler) RegisterAdmin(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("creating admin", zap.String("username", req.Username))

	if err := h.admins.Register(e.Request().Context(), req.Username, req.Password); err != nil {
		l.Error("failed to create admin", zap.String("username", req.Username), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, echo.Map{"message": "Admin created successfully"})
}

func (h *Handler) decodeRequest(e echo.Context, req any) *service.Error {
	if err := e.Bind(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}

	if err := e.Validate(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "missing required fields")
	}
	return nil
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	response := echo.Map{"error": err.Message}

	switch err.Code {
	case service.ErrorCodeInvalidBody, service.ErrorCodeAdminExists:
		return e.JSON(http.StatusBadRequest, response)
	case service.ErrorCodeInvalidCredentials:
		return e.JSON(http.StatusUnauthorized, response)
	case service.ErrorCodeNotFound:
		return e.JSON(http.StatusNotFound, response)
	default:
		return e.JSON(http.StatusInternalServerError, response)
	}
}
