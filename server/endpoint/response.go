package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	lcerrors "github.com/kbukum/lifecycle/errors"
)

// RespondWithError writes err as a structured error body. Errors that are
// not an *AppError are reported as a generic 500.
func RespondWithError(c *gin.Context, status int, err error) {
	if appErr, ok := lcerrors.AsAppError(err); ok {
		c.JSON(status, appErr.ToResponse())
		return
	}
	c.JSON(http.StatusInternalServerError, lcerrors.ErrorResponse{
		Error: lcerrors.ErrorBody{Code: "INTERNAL_ERROR", Message: "Internal server error"},
	})
}
