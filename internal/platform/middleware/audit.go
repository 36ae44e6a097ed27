package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dentiva/clinic/internal/platform/auth"
)

// AuditEntry captures who accessed which patient data, when, from where, and
// the action type.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	Resource   string
	PatientID  string
	Action     string // read, create, update, delete, search
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries. Decoupling the middleware from a
// concrete store lets tests provide a mock implementation.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit returns middleware that logs access to patient data under /api/v1/.
// The authenticated user comes from the JWT claims placed in the request
// context by the auth middleware. When no AuditRecorder is provided the entry
// is written to the structured log instead.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			if !strings.HasPrefix(path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			ctx := req.Context()
			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(ctx),
				UserRoles:  auth.RolesFromContext(ctx),
				Resource:   resourceFromPath(path),
				PatientID:  patientIDFromPath(c),
				Action:     actionFromMethod(req.Method, path),
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				Path:       path,
				Method:     req.Method,
				Timestamp:  time.Now().UTC(),
				StatusCode: c.Response().Status,
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			recorded := false
			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("audit recorder failed")
				} else {
					recorded = true
				}
			}

			if !recorded {
				logger.Info().
					Str("request_id", entry.RequestID).
					Str("user_id", entry.UserID).
					Strs("roles", entry.UserRoles).
					Str("resource", entry.Resource).
					Str("patient_id", entry.PatientID).
					Str("action", entry.Action).
					Str("ip", entry.IPAddress).
					Int("status", entry.StatusCode).
					Msg("audit")
			}

			return err
		}
	}
}

// resourceFromPath extracts the first path segment after /api/v1/, e.g.
// "/api/v1/patients/123/journey" -> "patients".
func resourceFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i]
	}
	return rest
}

// patientIDFromPath returns the patient route parameter when the route has one.
func patientIDFromPath(c echo.Context) string {
	for _, name := range c.ParamNames() {
		if name == "patientId" || name == "id" {
			return c.Param(name)
		}
	}
	return ""
}

func actionFromMethod(method, path string) string {
	switch method {
	case "GET":
		if strings.HasSuffix(path, "s") || strings.Contains(path, "?") {
			return "search"
		}
		return "read"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	}
	return strings.ToLower(method)
}
