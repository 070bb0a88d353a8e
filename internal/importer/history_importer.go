// Package importer loads recharge history exports into the document store.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/metrics"
	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
	"github.com/ArowuTest/mtn-ras-backend/internal/utils"
)

const defaultBatchSize = 500

// ImportResult summarises one import run
type ImportResult struct {
	TotalRows int      `json:"totalRows"`
	Inserted  int      `json:"inserted"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

// HistoryImporter appends CSV recharge rows to the subscriber_history ledger
type HistoryImporter struct {
	history   repositories.SubscriberHistoryRepository
	batchSize int
	now       func() time.Time
}

// NewHistoryImporter creates a HistoryImporter. A batchSize below one uses the default.
func NewHistoryImporter(history repositories.SubscriberHistoryRepository, batchSize int) *HistoryImporter {
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	return &HistoryImporter{history: history, batchSize: batchSize, now: time.Now}
}

type columns struct {
	msisdn, amount, faceValue, date, payType, txID, loan int
}

func mapColumns(header []string) columns {
	return columns{
		msisdn:    findColumnIndex(header, "MSISDN", "Phone Number", "Mobile"),
		amount:    findColumnIndex(header, "Recharge Amount", "Amount", "Topup Amount"),
		faceValue: findColumnIndex(header, "Card Face Value", "Face Value"),
		date:      findColumnIndex(header, "Recharge Date", "Recharge Time", "Date", "Topup Date"),
		payType:   findColumnIndex(header, "Pay Type", "PayType", "Tariff"),
		txID:      findColumnIndex(header, "Transaction ID", "TransactionID", "Reference"),
		loan:      findColumnIndex(header, "Loan Indicator", "Loan", "Borrowed"),
	}
}

// Import reads a CSV with a header row and appends one history document per valid
// row. Bad rows are recorded and skipped; a store failure stops the import with the
// rows inserted so far reported in the result.
func (i *HistoryImporter) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := mapColumns(header)
	if cols.msisdn == -1 {
		return nil, fmt.Errorf("MSISDN column not found in CSV")
	}
	if cols.amount == -1 && cols.faceValue == -1 {
		return nil, fmt.Errorf("recharge amount column not found in CSV")
	}

	result := &ImportResult{Errors: []string{}}
	batch := make([]*models.SubscriberHistory, 0, i.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := i.history.InsertHistory(ctx, batch...)
		result.Inserted += n
		metrics.HistoryImportedTotal.WithLabelValues("inserted").Add(float64(n))
		if n < len(batch) {
			metrics.HistoryImportedTotal.WithLabelValues("rejected").Add(float64(len(batch) - n))
		}
		batch = batch[:0]
		return err
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		result.TotalRows++
		if err != nil {
			i.skip(result, fmt.Sprintf("Row %d: %v", result.TotalRows, err))
			continue
		}

		doc, reason := i.parseRow(row, cols)
		if reason != "" {
			i.skip(result, fmt.Sprintf("Row %d: %s", result.TotalRows, reason))
			continue
		}

		batch = append(batch, doc)
		if len(batch) >= i.batchSize {
			if err := flush(); err != nil {
				return result, fmt.Errorf("insert history batch: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return result, fmt.Errorf("insert history batch: %w", err)
	}

	slog.Info("History import finished", "rows", result.TotalRows, "inserted", result.Inserted, "skipped", result.Skipped)
	return result, nil
}

func (i *HistoryImporter) skip(result *ImportResult, msg string) {
	result.Skipped++
	result.Errors = append(result.Errors, msg)
	metrics.HistoryImportedTotal.WithLabelValues("skipped").Inc()
}

func (i *HistoryImporter) parseRow(row []string, cols columns) (*models.SubscriberHistory, string) {
	number := field(row, cols.msisdn)
	if number == "" {
		return nil, "No MSISDN found"
	}
	msisdn := utils.NormalizeMSISDN(number)

	doc := &models.SubscriberHistory{MSISDN: msisdn}

	if raw := field(row, cols.amount); raw != "" {
		amount, err := utils.ParseAmount(raw)
		if err != nil || amount < 0 {
			return nil, fmt.Sprintf("Invalid amount: %s", raw)
		}
		doc.CardFaceValue = amount
	}
	if raw := field(row, cols.faceValue); raw != "" {
		amount, err := utils.ParseAmount(raw)
		if err != nil || amount < 0 {
			return nil, fmt.Sprintf("Invalid face value: %s", raw)
		}
		doc.CardFaceValue = amount
	}

	if raw := field(row, cols.payType); raw != "" {
		pt, ok := models.ParsePayType(raw)
		if !ok {
			return nil, fmt.Sprintf("Invalid pay type: %s", raw)
		}
		doc.PayType = pt
	}
	// amount lands on the side of the account matching the pay type
	switch doc.PayType {
	case models.PayTypePostpaid:
		doc.RechargeForPostpaid = doc.CardFaceValue
	default:
		doc.RechargeForPrepaid = doc.CardFaceValue
	}

	if raw := field(row, cols.date); raw != "" {
		ts, err := utils.ParseDate(raw)
		if err != nil {
			return nil, fmt.Sprintf("Invalid date: %s", raw)
		}
		doc.RechargeTime = ts.UTC()
	} else {
		doc.RechargeTime = i.now().UTC()
	}

	doc.TransactionID = field(row, cols.txID)
	doc.LoanIndicator = utils.ParseFlag(field(row, cols.loan))
	doc.TradeType = "CSV_IMPORT"
	return doc, ""
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func findColumnIndex(header []string, possibleNames ...string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, name := range possibleNames {
			if strings.ToLower(name) == h {
				return i
			}
		}
	}
	return -1
}
