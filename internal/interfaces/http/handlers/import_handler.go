package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patentbase-io/patentbase/internal/application/ingest"
	"github.com/patentbase-io/patentbase/internal/config"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

// Importer triggers one ingest batch.
type Importer interface {
	Ingest(ctx context.Context, countryCode string, limit int) (ingest.Result, error)
}

type importRequest struct {
	CountryCode string `json:"country_code"`
	Limit       *int   `json:"limit"`
}

// ImportHandler answers POST /import. The batch runs synchronously; a client
// that disconnects mid-batch does not abort it.
type ImportHandler struct {
	importer Importer
	cfg      config.IngestConfig
	logger   logging.Logger
}

func NewImportHandler(importer Importer, cfg config.IngestConfig, logger logging.Logger) *ImportHandler {
	return &ImportHandler{importer: importer, cfg: cfg, logger: logger}
}

func (h *ImportHandler) Post(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondDomainError(c, h.logger, errors.Wrap(err, errors.CodeBadRequest, "malformed import request"))
		return
	}

	limit := h.cfg.DefaultImportLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	if limit < 1 || limit > h.cfg.MaxImportLimit {
		respondDomainError(c, h.logger, errors.Newf(errors.CodeBadRequest,
			"limit must be between 1 and %d", h.cfg.MaxImportLimit))
		return
	}

	res, err := h.importer.Ingest(c.Request.Context(), req.CountryCode, limit)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   res.Count,
		"message": fmt.Sprintf("imported %d publications", res.Count),
	})
}
