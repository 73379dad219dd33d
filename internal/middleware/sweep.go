package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-enroll-api/internal/service"
)

// Sweep runs the enrollment period auto-close sweep before admin requests.
// The sweep is idempotent and best-effort; it never blocks the request.
func Sweep(periods *service.PeriodService, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if enabled && periods != nil {
			periods.SweepAutoClose(c.Request.Context())
		}
		c.Next()
	}
}
