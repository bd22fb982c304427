package recordsparser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/recordsparser/entities"
)

const exportColumns = 12

// SkipStats counts the lines dropped while parsing an export.
type SkipStats struct {
	EmptyLines     int
	MissingColumns int
	FormatErrors   int
}

func (s SkipStats) total() int {
	return s.EmptyLines + s.MissingColumns + s.FormatErrors
}

// parseRecords reads the tab separated export. Malformed lines are skipped
// and counted; only a read error fails the whole parse.
func parseRecords(r io.Reader) ([]entities.Prescription, SkipStats, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1*1024*1024)

	records := []entities.Prescription{}
	var stats SkipStats
	lineCount := 0

	for scanner.Scan() {
		lineCount++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			stats.EmptyLines++
			continue
		}

		fields := strings.Split(line, "\t")

		if lineCount == 1 && strings.EqualFold(strings.TrimSpace(fields[0]), "id") {
			continue
		}

		if len(fields) < exportColumns {
			stats.MissingColumns++
			continue
		}

		id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			stats.FormatErrors++
			continue
		}

		doctorID, err := strconv.Atoi(strings.TrimSpace(fields[7]))
		if err != nil {
			stats.FormatErrors++
			continue
		}

		records = append(records, entities.Prescription{
			ID:                id,
			DrugName:          strings.TrimSpace(fields[1]),
			Dosage:            strings.TrimSpace(fields[2]),
			Frequency:         strings.TrimSpace(fields[3]),
			Duration:          strings.TrimSpace(fields[4]),
			Instructions:      strings.TrimSpace(fields[5]),
			Notes:             strings.TrimSpace(fields[6]),
			DoctorID:          doctorID,
			DoctorName:        strings.TrimSpace(fields[8]),
			PatientIdentifier: strings.TrimSpace(fields[9]),
			IssuedAt:          strings.TrimSpace(fields[10]),
			Status:            entities.ParseStatus(fields[11]),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("scanner error at line %d: %w", lineCount, err)
	}

	if stats.total() > 0 {
		logging.Info("Export parsing completed with skipped lines",
			"total_lines", lineCount,
			"records", len(records),
			"skipped_empty", stats.EmptyLines,
			"skipped_missing_columns", stats.MissingColumns,
			"skipped_format_errors", stats.FormatErrors,
		)
	}

	return records, stats, nil
}
