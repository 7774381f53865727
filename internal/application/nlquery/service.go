package nlquery

import (
	"context"
	"time"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/patentbase-io/patentbase/internal/domain/publication"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/logging"
	"github.com/patentbase-io/patentbase/internal/infrastructure/monitoring/prometheus"
	"github.com/patentbase-io/patentbase/pkg/errors"
)

// Reader is the slice of the publication repository the service reads through.
type Reader interface {
	QueryPublications(ctx context.Context, query string, args []any) ([]publication.Publication, error)
}

// Response echoes the translation alongside the rows so clients can see how
// their phrase was interpreted.
type Response struct {
	NaturalLanguageQuery string                    `json:"natural_language_query"`
	AppliedIntent        Intent                    `json:"applied_intent"`
	SQLQuery             string                    `json:"sql_query"`
	Count                int                       `json:"count"`
	Results              []publication.Publication `json:"results"`
}

// Service translates a phrase and executes the rendered statement.
type Service struct {
	translator *Translator
	reader     Reader
	metrics    *prometheus.Metrics
	logger     logging.Logger
}

// NewService wires the query pipeline.
func NewService(translator *Translator, reader Reader, metrics *prometheus.Metrics, logger logging.Logger) *Service {
	return &Service{translator: translator, reader: reader, metrics: metrics, logger: logger}
}

// Query answers one natural-language request. Slot values are screened for
// injection patterns purely as telemetry: every value travels as a bound
// parameter regardless, so a flagged slot is logged and counted, not blocked.
func (s *Service) Query(ctx context.Context, query string) (Response, error) {
	if query == "" {
		return Response{}, errors.New(errors.CodeBadRequest, "query is empty")
	}

	start := time.Now()
	tr := s.translator.Translate(query)
	s.screenSlots(query, tr)

	results, err := s.reader.QueryPublications(ctx, tr.SQL, tr.Args)
	if err != nil {
		return Response{}, err
	}

	if s.metrics != nil {
		s.metrics.NLQueriesTotal.WithLabelValues(string(tr.Intent)).Inc()
		s.metrics.NLQueryDuration.Observe(time.Since(start).Seconds())
	}
	s.logger.Debug("nl query answered",
		logging.String("intent", string(tr.Intent)),
		logging.Int("rows", len(results)))

	return Response{
		NaturalLanguageQuery: query,
		AppliedIntent:        tr.Intent,
		SQLQuery:             tr.SQL,
		Count:                len(results),
		Results:              results,
	}, nil
}

func (s *Service) screenSlots(query string, tr Translation) {
	for name, value := range tr.Slots {
		if name == "n" {
			continue
		}
		if isSQLi, fingerprint := libinjection.IsSQLi(value); isSQLi {
			if s.metrics != nil {
				s.metrics.SuspiciousSlots.Inc()
			}
			s.logger.Warn("suspicious slot value in nl query",
				logging.String("slot", name),
				logging.String("fingerprint", string(fingerprint)),
				logging.String("query", query))
		}
	}
}
