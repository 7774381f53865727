package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patentbase-io/patentbase/internal/domain/publication"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

// FamilyReader resolves a publication or application number to its family.
type FamilyReader interface {
	FamilyOf(ctx context.Context, number string) ([]publication.FamilyMember, error)
}

// FamilyHandler answers GET /family/{application_number}. An unknown number
// is not an error: it answers success with an empty member list.
type FamilyHandler struct {
	reader FamilyReader
	logger logging.Logger
}

func NewFamilyHandler(reader FamilyReader, logger logging.Logger) *FamilyHandler {
	return &FamilyHandler{reader: reader, logger: logger}
}

func (h *FamilyHandler) Get(c *gin.Context) {
	number := wildcardParam(c, "number")
	if number == "" {
		respondDomainError(c, h.logger, errors.New(errors.CodeBadRequest, "application number is empty"))
		return
	}

	members, err := h.reader.FamilyOf(c.Request.Context(), number)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"application_number": number,
		"family_members":     members,
		"count":              len(members),
	})
}
