package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackfest/registration-backend/internal/auth"
	"github.com/hackfest/registration-backend/internal/model"
	"github.com/hackfest/registration-backend/internal/payment"
	"github.com/hackfest/registration-backend/internal/repository"
	"github.com/hackfest/registration-backend/internal/service"
)

const (
	testKeyID  = "rzp_test_key"
	testSecret = "rzp_test_secret"
)

type testServer struct {
	e       *echo.Echo
	regRepo *service.MockRegistrationRepository
	admRepo *service.MockAdminRepository
	gateway *service.MockGateway
}

func newTestServer() *testServer {
	auth.SessionSecretKey = "test-session-secret"

	regRepo := new(service.MockRegistrationRepository)
	admRepo := new(service.MockAdminRepository)
	gateway := new(service.MockGateway)

	registrations := service.NewRegistrationService(new(service.MockTransactor)).
		WithRegistrationRepo(regRepo).
		WithGateway(gateway).
		WithGatewayKeys(testKeyID, testSecret)

	admins := service.NewAdminService(time.Hour).
		WithAdminRepo(admRepo)

	e := echo.New()

	NewHandler(zap.NewNop()).
		WithRegistrationService(registrations).
		WithAdminService(admins).
		RegisterRoutes(e)

	return &testServer{
		e:       e,
		regRepo: regRepo,
		admRepo: admRepo,
		gateway: gateway,
	}
}

func (s *testServer) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("valid registration returns checkout details", func(t *testing.T) {
		s := newTestServer()

		s.regRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		s.regRepo.On("AddMember", mock.Anything, mock.Anything).Return(nil)
		s.gateway.On("CreateOrder", mock.Anything, service.RegistrationAmount, "INR", mock.Anything).
			Return(&payment.Order{ID: "order_123", Amount: service.RegistrationAmount, Currency: "INR"}, nil)
		s.regRepo.On("Patch", mock.Anything, mock.Anything).Return(&repository.Registration{}, nil)

		rec := s.do(http.MethodPost, "/api/register",
			`{"teamName":"Alpha","members":[{"name":"A","email":"a@x.com","phone":"1","roll":"R1","college":"C"}]}`)

		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, "Registration successful", body["message"])
		assert.Equal(t, "order_123", body["orderId"])
		assert.EqualValues(t, 149900, body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, testKeyID, body["key"])
	})

	t.Run("client-supplied amount is overridden", func(t *testing.T) {
		s := newTestServer()

		s.regRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *repository.Registration) bool {
			return r.Amount == service.RegistrationAmount
		})).Return(nil)
		s.regRepo.On("AddMember", mock.Anything, mock.Anything).Return(nil)
		s.gateway.On("CreateOrder", mock.Anything, service.RegistrationAmount, "INR", mock.Anything).
			Return(&payment.Order{ID: "order_123", Amount: service.RegistrationAmount, Currency: "INR"}, nil)
		s.regRepo.On("Patch", mock.Anything, mock.Anything).Return(&repository.Registration{}, nil)

		rec := s.do(http.MethodPost, "/api/register",
			`{"teamName":"Alpha","amount":1,"members":[{"name":"A","email":"a@x.com","phone":"1","roll":"R1","college":"C"}]}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		s.regRepo.AssertExpectations(t)
	})

	t.Run("missing team name is rejected", func(t *testing.T) {
		s := newTestServer()

		rec := s.do(http.MethodPost, "/api/register",
			`{"members":[{"name":"A","email":"a@x.com","phone":"1","roll":"R1","college":"C"}]}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.NotEmpty(t, body["error"])

		s.regRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("gateway failure returns a generic error", func(t *testing.T) {
		s := newTestServer()

		s.regRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		s.regRepo.On("AddMember", mock.Anything, mock.Anything).Return(nil)
		s.gateway.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, assert.AnError)
		s.regRepo.On("Patch", mock.Anything, mock.Anything).Return(&repository.Registration{}, nil)

		rec := s.do(http.MethodPost, "/api/register",
			`{"teamName":"Alpha","members":[{"name":"A","email":"a@x.com","phone":"1","roll":"R1","college":"C"}]}`)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.NotContains(t, body["error"], testSecret)
	})
}

func TestVerifyPaymentEndpoint(t *testing.T) {
	validSignature := payment.SignOrder(testSecret, "order_123", "pay_456")

	t.Run("valid signature", func(t *testing.T) {
		s := newTestServer()

		s.regRepo.On("CompletePayment", mock.Anything, "order_123").
			Return(&repository.Registration{ID: "reg-1", PaymentStatus: model.PaymentStatusCompleted}, nil)

		rec := s.do(http.MethodPost, "/api/verify-payment",
			`{"razorpay_order_id":"order_123","razorpay_payment_id":"pay_456","razorpay_signature":"`+validSignature+`"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
	})

	t.Run("tampered signature", func(t *testing.T) {
		s := newTestServer()

		rec := s.do(http.MethodPost, "/api/verify-payment",
			`{"razorpay_order_id":"order_123","razorpay_payment_id":"pay_456","razorpay_signature":"deadbeef"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])

		s.regRepo.AssertNotCalled(t, "CompletePayment", mock.Anything, mock.Anything)
	})

	t.Run("missing callback fields", func(t *testing.T) {
		s := newTestServer()

		rec := s.do(http.MethodPost, "/api/verify-payment", `{"razorpay_order_id":"order_123"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
	})
}

func TestAdminEndpoints(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)

	t.Run("dashboard requires a session", func(t *testing.T) {
		s := newTestServer()

		for _, path := range []string{"/admin/dashboard", "/api/registrations"} {
			rec := s.do(http.MethodGet, path, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		}
	})

	t.Run("dashboard lists registrations for a valid session", func(t *testing.T) {
		s := newTestServer()

		s.regRepo.On("List", mock.Anything).Return([]*repository.Registration{}, nil)

		token, tokenErr := auth.GenerateSessionToken("admin", time.Hour)
		require.NoError(t, tokenErr)

		rec := s.do(http.MethodGet, "/admin/dashboard", "", auth.NewSessionCookie(token, time.Hour))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	})

	t.Run("expired session is rejected", func(t *testing.T) {
		s := newTestServer()

		token, tokenErr := auth.GenerateSessionToken("admin", -time.Hour)
		require.NoError(t, tokenErr)

		rec := s.do(http.MethodGet, "/admin/dashboard", "", auth.NewSessionCookie(token, time.Hour))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("login sets a session cookie", func(t *testing.T) {
		s := newTestServer()

		s.admRepo.On("GetByUsername", mock.Anything, "admin").
			Return(&repository.Admin{Username: "admin", PasswordHash: hash}, nil)

		rec := s.do(http.MethodPost, "/api/login", `{"username":"admin","password":"s3cret"}`)

		require.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.NotEmpty(t, cookies[0].Value)
	})

	t.Run("wrong password yields 401 and no cookie", func(t *testing.T) {
		s := newTestServer()

		s.admRepo.On("GetByUsername", mock.Anything, "admin").
			Return(&repository.Admin{Username: "admin", PasswordHash: hash}, nil)

		rec := s.do(http.MethodPost, "/api/login", `{"username":"admin","password":"wrong"}`)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Result().Cookies())

		body := decodeBody(t, rec)
		assert.Equal(t, "invalid credentials", body["error"])
	})

	t.Run("unknown user yields the same generic error", func(t *testing.T) {
		s := newTestServer()

		s.admRepo.On("GetByUsername", mock.Anything, "ghost").
			Return(nil, repository.ErrNotFound)

		rec := s.do(http.MethodPost, "/api/login", `{"username":"ghost","password":"s3cret"}`)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "invalid credentials", body["error"])
	})

	t.Run("logout clears the session cookie", func(t *testing.T) {
		s := newTestServer()

		rec := s.do(http.MethodGet, "/logout", "")

		require.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
		assert.Empty(t, cookies[0].Value)
	})

	t.Run("admin registration", func(t *testing.T) {
		s := newTestServer()

		s.admRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		rec := s.do(http.MethodPost, "/api/admin/register", `{"username":"admin","password":"s3cret"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		s.admRepo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists)

		rec = s.do(http.MethodPost, "/api/admin/register", `{"username":"admin","password":"s3cret"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, "admin already exists", body["error"])
	})
}
