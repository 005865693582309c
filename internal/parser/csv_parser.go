package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"travel-ledger/internal/domain"
	"travel-ledger/pkg/logger"
)

const DefaultBatchSize = 500

var requiredColumns = []string{"transaction_date", "description", "amount"}

// ErrInvalidFormat is returned when the header lacks a required column.
var ErrInvalidFormat = errors.New("invalid CSV format")

// Stats counts what a Parse call saw.
type Stats struct {
	Rows    int `json:"rows"`
	Parsed  int `json:"parsed"`
	Skipped int `json:"skipped"`
}

// BankTransactionParser streams bank statement rows in batches.
type BankTransactionParser interface {
	Parse(r io.Reader, batchSize int, callback func([]domain.BankTransaction) error) (Stats, error)
}

// CSVBankTransactionParser reads statement exports with the columns
// transaction_date, description, amount and optionally package_id and
// needs_invoice. Unreadable rows are skipped and counted.
type CSVBankTransactionParser struct {
	// DefaultNeedsInvoice applies when the needs_invoice column is absent or empty.
	DefaultNeedsInvoice bool
}

func NewCSVBankTransactionParser() *CSVBankTransactionParser {
	return &CSVBankTransactionParser{DefaultNeedsInvoice: true}
}

// ParseFile opens filePath and parses it.
func (p *CSVBankTransactionParser) ParseFile(filePath string, batchSize int, callback func([]domain.BankTransaction) error) (Stats, error) {
	file, err := os.Open(filePath)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("file", filePath).Error("Failed to open file")
		return Stats{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return p.Parse(file, batchSize, callback)
}

func (p *CSVBankTransactionParser) Parse(r io.Reader, batchSize int, callback func([]domain.BankTransaction) error) (Stats, error) {
	var stats Stats
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to read CSV header")
		return stats, fmt.Errorf("%w: failed to read header: %v", ErrInvalidFormat, err)
	}

	columnMap := mapColumns(header)
	if missing := missingColumns(columnMap); len(missing) > 0 {
		return stats, fmt.Errorf("%w: missing required columns (%s)", ErrInvalidFormat, strings.Join(missing, ", "))
	}

	batch := make([]domain.BankTransaction, 0, batchSize)
	lineNumber := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNumber++
		stats.Rows++
		if err != nil {
			logger.GetLogger().WithError(err).WithField("line", lineNumber).Warn("Failed to read CSV row, skipping")
			stats.Skipped++
			continue
		}

		tx, err := p.parseRecord(record, columnMap, lineNumber)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("line", lineNumber).Warn("Failed to parse record, skipping")
			stats.Skipped++
			continue
		}

		batch = append(batch, *tx)
		stats.Parsed++

		if len(batch) >= batchSize {
			if err := callback(batch); err != nil {
				return stats, err
			}
			batch = make([]domain.BankTransaction, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		if err := callback(batch); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

func (p *CSVBankTransactionParser) parseRecord(record []string, columnMap map[string]int, lineNumber int) (*domain.BankTransaction, error) {
	field := func(name string) string {
		i, ok := columnMap[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	dateStr := field("transaction_date")
	date, err := parseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction_date '%s' at line %d: %w", dateStr, lineNumber, err)
	}

	amountStr := field("amount")
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount '%s' at line %d: %w", amountStr, lineNumber, err)
	}

	tx := &domain.BankTransaction{
		TransactionDate: domain.Date(date),
		Description:     field("description"),
		Amount:          amount,
		NeedsInvoice:    p.DefaultNeedsInvoice,
		Status:          domain.TransactionPending,
	}

	if pkg := field("package_id"); pkg != "" {
		tx.PackageID = &pkg
	}
	if raw := field("needs_invoice"); raw != "" {
		needs, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid needs_invoice '%s' at line %d: %w", raw, lineNumber, err)
		}
		tx.NeedsInvoice = needs
	}
	return tx, nil
}

func mapColumns(header []string) map[string]int {
	columnMap := make(map[string]int)
	for i, col := range header {
		normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		columnMap[normalized] = i
	}
	return columnMap
}

func missingColumns(columnMap map[string]int) []string {
	var missing []string
	for _, col := range requiredColumns {
		if _, exists := columnMap[col]; !exists {
			missing = append(missing, col)
		}
	}
	return missing
}

func parseDate(dateStr string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"02/01/2006",
		"2006/01/02",
		"02.01.2006",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
