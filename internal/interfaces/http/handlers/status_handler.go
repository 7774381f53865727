package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patentbase-io/patentbase/internal/infrastructure/database/sqlite"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
)

// StatusReader serves the store counters.
type StatusReader interface {
	Status(ctx context.Context) (sqlite.Status, error)
}

// StatusHandler answers GET /status from the local store only; it works even
// when the warehouse side is completely down.
type StatusHandler struct {
	reader StatusReader
	logger logging.Logger
}

func NewStatusHandler(reader StatusReader, logger logging.Logger) *StatusHandler {
	return &StatusHandler{reader: reader, logger: logger}
}

func (h *StatusHandler) Get(c *gin.Context) {
	st, err := h.reader.Status(c.Request.Context())
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"publication_count":  st.PublicationCount,
		"family_count":       st.FamilyCount,
		"unique_families":    st.UniqueFamilies,
		"latest_publication": st.LatestPublication,
	})
}
