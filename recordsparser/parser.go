package recordsparser

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/giygas/prescriptions-api/interfaces"
	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/recordsparser/entities"
)

// Compile-time check to ensure RecordsParser implements RecordSource
var _ interfaces.RecordSource = (*RecordsParser)(nil)

var errNoLocation = errors.New("records source location is empty")

// RecordsParser implements interfaces.RecordSource over a TSV export.
type RecordsParser struct {
	location string
	client   *http.Client
}

// NewRecordsParser creates a parser reading from a local path or an http(s) URL.
func NewRecordsParser(location string) *RecordsParser {
	return &RecordsParser{
		location: location,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

// LoadRecords fetches and parses the whole export.
func (p *RecordsParser) LoadRecords(ctx context.Context) ([]entities.Prescription, error) {
	if p.location == "" {
		return nil, errNoLocation
	}

	start := time.Now()
	body, err := fetch(ctx, p.client, p.location)
	if err != nil {
		return nil, err
	}

	records, _, err := parseRecords(decode(body))
	if err != nil {
		return nil, err
	}

	logging.Info("Records parsed", "count", len(records), "duration", time.Since(start))
	return records, nil
}
