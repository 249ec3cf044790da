package server

import (
	"net/http"

	"github.com/Luismorlan/mediamux/functions"
	"github.com/Luismorlan/mediamux/gallery"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, functions.ErrBadRequest), errors.Is(err, gallery.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, functions.ErrNotFound), errors.Is(err, gallery.ErrMediaNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {error} with the status matching err. Only server
// side failures are logged.
func respondError(c *gin.Context, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		Logger.Log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed: ", err)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func badRequest(format string, args ...interface{}) error {
	return errors.Wrapf(functions.ErrBadRequest, format, args...)
}
