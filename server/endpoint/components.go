package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/lifecycle/component"
	lcerrors "github.com/kbukum/lifecycle/errors"
)

// Components returns a handler that dumps the registry snapshot.
func Components(inspector component.Inspector) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"run_id":             inspector.RunID(),
			"construction_order": inspector.ConstructionOrder(),
			"components":         inspector.Snapshot(),
		})
	}
}

// ComponentByName returns a handler for a single component, 404 if unknown.
func ComponentByName(inspector component.Inspector) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		for _, st := range inspector.Snapshot() {
			if st.Name == name {
				c.JSON(http.StatusOK, st)
				return
			}
		}
		RespondWithError(c, http.StatusNotFound, lcerrors.Configuration("component %q is not registered", name))
	}
}
