// Package nlquery maps a bounded grammar of Japanese and English phrases onto
// parameterized SQL against the local publication store. The translator is a
// finite set of pattern matchers with slot extractors; it never builds SQL
// from user text and never emits anything but a read-only statement over
// publications.
package nlquery

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"

	"github.com/patentbase-io/patentbase/internal/config"
)

// Intent labels how a phrase was matched. The set is closed.
type Intent string

const (
	IntentRecent      Intent = "recent"
	IntentByTopic     Intent = "by_topic"
	IntentByApplicant Intent = "by_applicant"
	IntentByIPC       Intent = "by_ipc"
	IntentByYear      Intent = "by_year"
)

// Translation is the rendered output of one phrase: the statement, its bound
// arguments, the applied intent and the extracted slot values (before
// wildcard wrapping) for debugging and screening.
type Translation struct {
	SQL    string
	Args   []any
	Intent Intent
	Slots  map[string]string
}

const selectPublications = `SELECT publication_number, filing_date, publication_date, application_number,
       assignee, title_ja, title_en, abstract_ja, abstract_en,
       ipc_code, family_id, country_code
FROM publications`

var (
	ipcPattern = regexp.MustCompile(`(?i)(?:\bIPC\b|\bclassification\b|国際特許分類|分類)[\s:：]*([A-Ha-h](?:[0-9]{2}[A-Z]?)?(?:\s?[0-9]+/[0-9]+)?)`)

	yearJPPattern = regexp.MustCompile(`([0-9]{4})年`)
	yearENPattern = regexp.MustCompile(`(?i)\bin\s+([0-9]{4})\b`)
	bareYear      = regexp.MustCompile(`\b([0-9]{4})\b`)

	countJPPattern = regexp.MustCompile(`([0-9]+)\s*件`)
	countENPattern = regexp.MustCompile(`(?i)\b([0-9]+)\s+(?:patents?|results?)\b|(?i)\b(?:latest|top|recent)\s+([0-9]+)\b`)

	quotedPattern = regexp.MustCompile(`「([^」]+)」|“([^”]+)”|"([^"]+)"|'([^']+)'`)

	topicJPPattern = regexp.MustCompile(`(.+?)に(?:関する|ついての?)`)
	topicENPattern = regexp.MustCompile(`(?i)(?:patents?\s+)?(?:about|regarding|related\s+to)\s+(.+)`)

	applicantJPPattern = regexp.MustCompile(`(.+?)の特許`)
	applicantENPattern = regexp.MustCompile(`(?i)patents?\s+(?:by|of|from)\s+(.+)`)

	recentPattern = regexp.MustCompile(`(?i)最新|直近|新しい|\blatest\b|\brecent\b|\bnewest\b`)

	trailingNoise = regexp.MustCompile(`(?i)[\s。、.,!?！？]+$|\s+patents?$`)
)

// Translator renders phrases into one of the fixed templates.
type Translator struct {
	defaultN int
	maxN     int
}

// NewTranslator builds a translator with the configured result bounds.
func NewTranslator(cfg config.NLConfig) *Translator {
	defaultN := cfg.DefaultResults
	if defaultN <= 0 {
		defaultN = 10
	}
	maxN := cfg.MaxResults
	if maxN <= 0 {
		maxN = 100
	}
	return &Translator{defaultN: defaultN, maxN: maxN}
}

// Translate maps one phrase onto a template. Unrecognized input falls back to
// the recent listing; translation never fails.
func (t *Translator) Translate(query string) Translation {
	query = strings.TrimSpace(query)
	n := t.extractCount(query)

	if code, ok := extractIPC(query); ok {
		return t.render(IntentByIPC,
			` WHERE ipc_code LIKE :ipc`,
			map[string]string{"ipc": code},
			[]any{sql.Named("ipc", "%"+code+"%")}, n)
	}

	if year, ok := extractYear(query); ok {
		return t.render(IntentByYear,
			` WHERE substr(publication_date, 1, 4) = :y`,
			map[string]string{"y": year},
			[]any{sql.Named("y", year)}, n)
	}

	if topic, ok := extractTopic(query); ok {
		return t.render(IntentByTopic,
			` WHERE title_ja LIKE :q OR abstract_ja LIKE :q OR title_en LIKE :q OR abstract_en LIKE :q`,
			map[string]string{"q": topic},
			[]any{sql.Named("q", "%"+topic+"%")}, n)
	}

	if applicant, ok := extractApplicant(query); ok {
		return t.render(IntentByApplicant,
			` WHERE assignee LIKE :q`,
			map[string]string{"q": applicant},
			[]any{sql.Named("q", "%"+applicant+"%")}, n)
	}

	return t.render(IntentRecent, ``, map[string]string{}, nil, n)
}

func (t *Translator) render(intent Intent, where string, slots map[string]string, args []any, n int) Translation {
	slots["n"] = strconv.Itoa(n)
	return Translation{
		SQL:    selectPublications + where + ` ORDER BY publication_date DESC LIMIT :n`,
		Args:   append(args, sql.Named("n", n)),
		Intent: intent,
		Slots:  slots,
	}
}

// extractCount pulls a result count adjacent to a count noun, clamped to the
// configured maximum. Integers without a count noun never become n.
func (t *Translator) extractCount(query string) int {
	var raw string
	if m := countJPPattern.FindStringSubmatch(query); m != nil {
		raw = m[1]
	} else if m := countENPattern.FindStringSubmatch(query); m != nil {
		raw = m[1]
		if raw == "" {
			raw = m[2]
		}
	}
	if raw == "" {
		return t.defaultN
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return t.defaultN
	}
	if n > t.maxN {
		return t.maxN
	}
	return n
}

func extractIPC(query string) (string, bool) {
	m := ipcPattern.FindStringSubmatch(query)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(strings.TrimSpace(m[1])), true
}

// extractYear accepts a 4-digit integer only when it is not a count ("5件"
// style numbers are consumed by extractCount before bare digits are read).
func extractYear(query string) (string, bool) {
	if m := yearJPPattern.FindStringSubmatch(query); m != nil {
		return m[1], true
	}
	if m := yearENPattern.FindStringSubmatch(query); m != nil {
		return m[1], true
	}
	stripped := countJPPattern.ReplaceAllString(query, "")
	stripped = countENPattern.ReplaceAllString(stripped, "")
	if m := bareYear.FindStringSubmatch(stripped); m != nil {
		return m[1], true
	}
	return "", false
}

func extractTopic(query string) (string, bool) {
	if m := quotedPattern.FindStringSubmatch(query); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				return strings.TrimSpace(g), true
			}
		}
	}
	if m := topicJPPattern.FindStringSubmatch(query); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := topicENPattern.FindStringSubmatch(query); m != nil {
		return cleanSlot(m[1]), true
	}
	return "", false
}

func extractApplicant(query string) (string, bool) {
	if m := applicantENPattern.FindStringSubmatch(query); m != nil {
		return cleanSlot(m[1]), true
	}
	if m := applicantJPPattern.FindStringSubmatch(query); m != nil {
		head := strings.TrimSpace(m[1])
		// "最新の特許" is a recency phrase, not an applicant called 最新.
		if head == "" || recentPattern.MatchString(head) {
			return "", false
		}
		return head, true
	}
	return "", false
}

func cleanSlot(s string) string {
	return strings.TrimSpace(trailingNoise.ReplaceAllString(strings.TrimSpace(s), ""))
}
