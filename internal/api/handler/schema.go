package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string            `json:"token"`
	User  *domain.Principal `json:"user"`
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role" validate:"required,oneof=user admin"`
}

type createReservationRequest struct {
	ResourceID string   `json:"resourceId" validate:"required"`
	Date       string   `json:"date" validate:"required"`
	StartTime  string   `json:"startTime" validate:"required"`
	Duration   Duration `json:"duration" validate:"required,gt=0"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Duration is a booking length in hours. Form-driven clients send it as a
// string ("1.5"), API clients as a number; both decode.
type Duration float64

func (d *Duration) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*d = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("duration %q is not a number of hours", s)
		}
		*d = Duration(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*d = Duration(f)
	return nil
}
