// Package publication holds the core domain records of the local patent store.
package publication

import (
	"regexp"
	"strings"

	"github.com/patentbase-io/patentbase/pkg/errors"
)

// Publication is one patent publication record. All attributes are flattened
// strings; list-valued warehouse columns arrive joined with "; ".
type Publication struct {
	PublicationNumber string `json:"publication_number"`
	FilingDate        string `json:"filing_date"`
	PublicationDate   string `json:"publication_date"`
	ApplicationNumber string `json:"application_number"`
	Assignee          string `json:"assignee"`
	TitleJA           string `json:"title_ja"`
	TitleEN           string `json:"title_en"`
	AbstractJA        string `json:"abstract_ja"`
	AbstractEN        string `json:"abstract_en"`
	IPCCode           string `json:"ipc_code"`
	FamilyID          string `json:"family_id"`
	CountryCode       string `json:"country_code"`
}

// FamilyMember is one row of the derived family table: publication P belongs
// to family F, with country and date denormalized for join-free lookups.
type FamilyMember struct {
	FamilyID          string `json:"family_id"`
	PublicationNumber string `json:"publication_number"`
	CountryCode       string `json:"country_code"`
	PublicationDate   string `json:"publication_date"`
}

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// FromRow builds a Publication from a flattened warehouse record. Unlabeled
// legacy feeds carried bare "title"/"abstract" columns; those map onto the
// Japanese fields when the localized columns are absent.
func FromRow(row map[string]string) Publication {
	p := Publication{
		PublicationNumber: strings.TrimSpace(row["publication_number"]),
		FilingDate:        strings.TrimSpace(row["filing_date"]),
		PublicationDate:   strings.TrimSpace(row["publication_date"]),
		ApplicationNumber: strings.TrimSpace(row["application_number"]),
		Assignee:          row["assignee"],
		TitleJA:           row["title_ja"],
		TitleEN:           row["title_en"],
		AbstractJA:        row["abstract_ja"],
		AbstractEN:        row["abstract_en"],
		IPCCode:           row["ipc_code"],
		FamilyID:          strings.TrimSpace(row["family_id"]),
		CountryCode:       strings.TrimSpace(row["country_code"]),
	}
	if p.TitleJA == "" {
		p.TitleJA = row["title"]
	}
	if p.AbstractJA == "" {
		p.AbstractJA = row["abstract"]
	}
	return p
}

// Validate enforces the record invariants ahead of a write: a non-empty
// identity and ISO dates (or empty when the warehouse carried a null).
func (p Publication) Validate() error {
	if p.PublicationNumber == "" {
		return errors.New(errors.CodeBadRequest, "publication_number is empty")
	}
	if p.FilingDate != "" && !isoDatePattern.MatchString(p.FilingDate) {
		return errors.Newf(errors.CodeBadRequest, "filing_date %q is not YYYY-MM-DD", p.FilingDate)
	}
	if p.PublicationDate != "" && !isoDatePattern.MatchString(p.PublicationDate) {
		return errors.Newf(errors.CodeBadRequest, "publication_date %q is not YYYY-MM-DD", p.PublicationDate)
	}
	return nil
}

// InFamily reports whether the publication carries a family assignment and
// should therefore appear in the derived family table.
func (p Publication) InFamily() bool {
	return p.FamilyID != ""
}
