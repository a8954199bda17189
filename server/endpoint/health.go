package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/lifecycle/component"
	"github.com/kbukum/lifecycle/observability"
)

// ServiceInfo identifies the service in endpoint responses.
type ServiceInfo struct {
	Name    string
	Version string
}

// Health returns a handler that aggregates HealthAll of the inspector.
// Any component reported down turns the response into a 503.
func Health(info ServiceInfo, inspector component.Inspector) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.NewServiceHealth(info.Name, info.Version)
		sh.RunID = inspector.RunID()
		for _, ch := range inspector.HealthAll(c.Request.Context()) {
			sh.AddComponent(ch)
		}

		httpStatus := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     sh.Status,
			"service":    sh.Service,
			"version":    sh.Version,
			"run_id":     sh.RunID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": sh.Components,
		})
	}
}
