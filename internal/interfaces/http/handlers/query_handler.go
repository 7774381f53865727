package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patentbase-io/patentbase/internal/application/nlquery"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

// Querier answers natural-language queries.
type Querier interface {
	Query(ctx context.Context, query string) (nlquery.Response, error)
}

// QueryHandler answers POST /query and GET /query/{nl}.
type QueryHandler struct {
	querier Querier
	logger  logging.Logger
}

func NewQueryHandler(querier Querier, logger logging.Logger) *QueryHandler {
	return &QueryHandler{querier: querier, logger: logger}
}

type queryRequest struct {
	Query string `json:"query"`
}

func (h *QueryHandler) Post(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondDomainError(c, h.logger, errors.Wrap(err, errors.CodeBadRequest, "malformed query request"))
		return
	}
	h.answer(c, req.Query)
}

func (h *QueryHandler) Get(c *gin.Context) {
	h.answer(c, wildcardParam(c, "nl"))
}

func (h *QueryHandler) answer(c *gin.Context, query string) {
	resp, err := h.querier.Query(c.Request.Context(), query)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                true,
		"natural_language_query": resp.NaturalLanguageQuery,
		"applied_intent":         resp.AppliedIntent,
		"sql_query":              resp.SQLQuery,
		"count":                  resp.Count,
		"results":                resp.Results,
	})
}
