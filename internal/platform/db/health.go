package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// poolStats is a snapshot of the connection pool for operators watching the
// health endpoint.
type poolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

type healthResponse struct {
	Service string    `json:"service"`
	Status  string    `json:"status"`
	PingMS  int64     `json:"ping_ms"`
	Error   string    `json:"error,omitempty"`
	Pool    poolStats `json:"pool"`
}

// HealthHandler reports whether the clinic database is reachable. The ping is
// bounded so a hung database turns into a 503 instead of a stuck probe.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		start := time.Now()
		err := pool.Ping(ctx)
		stat := pool.Stat()

		resp := healthResponse{
			Service: "clinic-api",
			Status:  "healthy",
			PingMS:  time.Since(start).Milliseconds(),
			Pool: poolStats{
				TotalConns:    stat.TotalConns(),
				IdleConns:     stat.IdleConns(),
				AcquiredConns: stat.AcquiredConns(),
				MaxConns:      stat.MaxConns(),
			},
		}
		if err != nil {
			resp.Status = "unhealthy"
			resp.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
