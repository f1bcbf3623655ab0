package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/resource-booking/internal/api/middleware"
	"github.com/sirpyerre/resource-booking/internal/core/domain"
	"github.com/sirpyerre/resource-booking/internal/core/ports"
)

type stubAuthService struct {
	loginFn func(ctx context.Context, username, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.Principal, error) {
	return nil, domain.ErrInvalidToken
}

type stubReservationService struct {
	createFn func(ctx context.Context, p *domain.Principal, in ports.CreateReservationInput) (*domain.Reservation, error)
	deleteFn func(ctx context.Context, p *domain.Principal, id string) error
	listFn   func(ctx context.Context, p *domain.Principal) ([]*domain.ReservationDetail, error)
}

func (s *stubReservationService) Create(ctx context.Context, p *domain.Principal, in ports.CreateReservationInput) (*domain.Reservation, error) {
	return s.createFn(ctx, p, in)
}

func (s *stubReservationService) Delete(ctx context.Context, p *domain.Principal, id string) error {
	return s.deleteFn(ctx, p, id)
}

func (s *stubReservationService) List(ctx context.Context, p *domain.Principal) ([]*domain.ReservationDetail, error) {
	return s.listFn(ctx, p)
}

type stubUserService struct {
	createFn func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
	deleteFn func(ctx context.Context, p *domain.Principal, id string) error
}

func (s *stubUserService) List(context.Context) ([]*domain.User, error) { return nil, nil }

func (s *stubUserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) Delete(ctx context.Context, p *domain.Principal, id string) error {
	return s.deleteFn(ctx, p, id)
}

var alice = &domain.Principal{ID: "u-alice", Username: "alice", Role: domain.RoleUser}

func newContext(method, target, body string, p *domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		middleware.SetPrincipal(c, p)
	}
	return c, rec
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, username, password string) (string, *domain.User, error) {
			if username != "alice" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return "tok", &domain.User{ID: "u-alice", Username: "alice", Role: domain.RoleUser, PasswordHash: "hash"}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/auth/login", `{"username":"alice","password":"secret"}`, nil)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}

	var resp struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "tok" || resp.User["username"] != "alice" || resp.User["role"] != "user" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	stub := &stubAuthService{loginFn: func(context.Context, string, string) (string, *domain.User, error) {
		t.Fatal("service must not be called")
		return "", nil, nil
	}}
	c, _ := newContext(http.MethodPost, "/auth/login", `{"username":"alice"}`, nil)

	err := NewAuthHandler(stub).Login(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "password is required") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestAuthHandler_Login_PropagatesInvalidCredentials(t *testing.T) {
	stub := &stubAuthService{loginFn: func(context.Context, string, string) (string, *domain.User, error) {
		return "", nil, domain.ErrInvalidCredentials
	}}
	c, _ := newContext(http.MethodPost, "/auth/login", `{"username":"alice","password":"nope"}`, nil)

	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestAuthHandler_Profile(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/auth/profile", "", alice)
	if err := NewAuthHandler(&stubAuthService{}).Profile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var got map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got["id"] != "u-alice" || got["username"] != "alice" || got["role"] != "user" {
		t.Fatalf("unexpected profile: %v", got)
	}
}

func TestAuthHandler_Profile_WithoutPrincipal(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/auth/profile", "", nil)
	if err := NewAuthHandler(&stubAuthService{}).Profile(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestReservationHandler_Create(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		duration float64
	}{
		{"numeric duration", `{"resourceId":"r1","date":"2030-01-15","startTime":"09:00","duration":1.5}`, 1.5},
		{"string duration", `{"resourceId":"r1","date":"2030-01-15","startTime":"09:00","duration":"2"}`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubReservationService{
				createFn: func(_ context.Context, p *domain.Principal, in ports.CreateReservationInput) (*domain.Reservation, error) {
					if p != alice {
						t.Fatalf("principal not forwarded")
					}
					if in.ResourceID != "r1" || in.Date != "2030-01-15" || in.StartTime != "09:00" || in.Duration != tt.duration {
						t.Fatalf("unexpected input: %+v", in)
					}
					return &domain.Reservation{ID: "res-1", UserID: p.ID, ResourceID: in.ResourceID, Date: in.Date, StartTime: in.StartTime, Duration: in.Duration}, nil
				},
			}
			c, rec := newContext(http.MethodPost, "/reservations", tt.body, alice)

			if err := NewReservationHandler(stub).Create(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d", rec.Code)
			}
			var got map[string]any
			_ = json.Unmarshal(rec.Body.Bytes(), &got)
			if got["resourceId"] != "r1" || got["startTime"] != "09:00" || got["userId"] != "u-alice" {
				t.Fatalf("unexpected body: %v", got)
			}
		})
	}
}

func TestReservationHandler_Create_Invalid(t *testing.T) {
	stub := &stubReservationService{
		createFn: func(context.Context, *domain.Principal, ports.CreateReservationInput) (*domain.Reservation, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	bodies := []string{
		`{"date":"2030-01-15","startTime":"09:00","duration":1}`,
		`{"resourceId":"r1","date":"2030-01-15","startTime":"09:00"}`,
		`{"resourceId":"r1","date":"2030-01-15","startTime":"09:00","duration":-1}`,
		`{"resourceId":"r1","date":"2030-01-15","startTime":"09:00","duration":"abc"}`,
		`not json`,
	}
	for _, body := range bodies {
		c, _ := newContext(http.MethodPost, "/reservations", body, alice)
		if err := NewReservationHandler(stub).Create(c); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("body %s: expected validation error, got %v", body, err)
		}
	}
}

func TestReservationHandler_Delete(t *testing.T) {
	stub := &stubReservationService{
		deleteFn: func(_ context.Context, _ *domain.Principal, id string) error {
			if id != "res-1" {
				return domain.ErrReservationNotFound
			}
			return nil
		},
	}
	c, rec := newContext(http.MethodDelete, "/reservations/res-1", "", alice)
	c.SetParamNames("id")
	c.SetParamValues("res-1")

	if err := NewReservationHandler(stub).Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Reservation deleted") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	c, _ = newContext(http.MethodDelete, "/reservations/other", "", alice)
	c.SetParamNames("id")
	c.SetParamValues("other")
	if err := NewReservationHandler(stub).Delete(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReservationHandler_List(t *testing.T) {
	stub := &stubReservationService{
		listFn: func(context.Context, *domain.Principal) ([]*domain.ReservationDetail, error) {
			return []*domain.ReservationDetail{{
				Reservation: domain.Reservation{ID: "res-1", ResourceID: "r1"},
				Resource:    domain.Resource{ID: "r1", Name: "Athéna", Type: domain.ResourceMeetingRoom},
			}}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/reservations", "", alice)
	if err := NewReservationHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	res, _ := got[0]["resource"].(map[string]any)
	if len(got) != 1 || got[0]["id"] != "res-1" || res["name"] != "Athéna" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestUserHandler_Create(t *testing.T) {
	stub := &stubUserService{
		createFn: func(_ context.Context, in ports.CreateUserInput) (*domain.User, error) {
			return &domain.User{ID: "u-bob", Username: in.Username, Role: in.Role, PasswordHash: "hash"}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/users", `{"username":"bob","password":"pw","role":"user"}`, nil)
	if err := NewUserHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
}

func TestUserHandler_Create_RejectsUnknownRole(t *testing.T) {
	stub := &stubUserService{}
	c, _ := newContext(http.MethodPost, "/users", `{"username":"bob","password":"pw","role":"root"}`, nil)
	err := NewUserHandler(stub).Create(c)
	if !errors.Is(err, domain.ErrValidation) || !strings.Contains(err.Error(), "role must be one of") {
		t.Fatalf("expected role validation error, got %v", err)
	}
}

func TestUserHandler_Create_RejectsOverlongPassword(t *testing.T) {
	stub := &stubUserService{}
	body := `{"username":"bob","password":"` + strings.Repeat("x", 80) + `","role":"user"}`
	c, _ := newContext(http.MethodPost, "/users", body, nil)
	err := NewUserHandler(stub).Create(c)
	if !errors.Is(err, domain.ErrValidation) || !strings.Contains(err.Error(), "password must be at most 72") {
		t.Fatalf("expected password length error, got %v", err)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	admin := &domain.Principal{ID: "u-admin", Username: "admin", Role: domain.RoleAdmin}
	stub := &stubUserService{
		deleteFn: func(_ context.Context, p *domain.Principal, id string) error {
			if p != admin || id != "u-bob" {
				t.Fatalf("unexpected args %v %s", p, id)
			}
			return nil
		},
	}
	c, rec := newContext(http.MethodDelete, "/users/u-bob", "", admin)
	c.SetParamNames("id")
	c.SetParamValues("u-bob")
	if err := NewUserHandler(stub).Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "User deleted") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}
