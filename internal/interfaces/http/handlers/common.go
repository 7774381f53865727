// Package handlers implements the HTTP query surface. Domain failures travel
// as HTTP 200 bodies with success:false and a stable error code string; 5xx
// is reserved for panics.
package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

func respondDomainError(c *gin.Context, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	logger.Warn("request failed",
		logging.String("path", c.FullPath()),
		logging.String("code", string(code)),
		logging.Err(err))

	c.JSON(http.StatusOK, gin.H{
		"success": false,
		"error":   string(code),
		"message": errors.GetMessage(err),
	})
}

// wildcardParam reads a catch-all route parameter, trims the leading slash
// gin keeps on it, and percent-decodes it so CJK and space-bearing values
// compare equal whether the client sent them raw or encoded.
func wildcardParam(c *gin.Context, name string) string {
	raw := strings.TrimPrefix(c.Param(name), "/")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
