package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRoles(c echo.Context, roles ...string) {
	ctx := context.WithValue(c.Request().Context(), UserRolesKey, roles)
	c.SetRequest(c.Request().WithContext(ctx))
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name      string
		userRoles []string
		required  []string
		wantCode  int
	}{
		{"exact match", []string{"dentist"}, []string{"dentist"}, http.StatusOK},
		{"admin passes any check", []string{"admin"}, []string{"dentist"}, http.StatusOK},
		{"one of several", []string{"assistant"}, []string{"dentist", "assistant"}, http.StatusOK},
		{"no match", []string{"receptionist"}, []string{"dentist"}, http.StatusForbidden},
		{"no roles", nil, []string{"dentist"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			contextWithRoles(c, tt.userRoles...)

			handler := func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			}
			err := RequireRole(tt.required...)(handler)(c)

			code := http.StatusOK
			if err != nil {
				httpErr, ok := err.(*echo.HTTPError)
				if !ok {
					t.Fatalf("expected echo.HTTPError, got %T", err)
				}
				code = httpErr.Code
			}
			if code != tt.wantCode {
				t.Errorf("status = %d, want %d", code, tt.wantCode)
			}
		})
	}
}
