package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/lifecycle/component"
)

// Readiness returns a handler for K8s readiness probes. The service is ready
// once every registered component has reached the running stage.
func Readiness(info ServiceInfo, inspector component.Inspector) gin.HandlerFunc {
	return func(c *gin.Context) {
		var pending []string
		for _, name := range inspector.Names() {
			if stage, _ := inspector.Stage(name); stage != component.StageRunning {
				pending = append(pending, name)
			}
		}

		status := "ready"
		httpStatus := http.StatusOK
		if len(pending) > 0 {
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"service":   info.Name,
			"pending":   pending,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
