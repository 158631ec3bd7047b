package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/warungdev/lokapos/internal/sales"
)

// utf8BOM makes spreadsheet apps detect the encoding instead of guessing.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"transaction_id", "occurred_at", "product", "quantity",
	"unit_price", "effective_price", "discount_pct",
	"line_total", "line_cost", "profit",
}

// Service renders sales reports.
type Service struct {
	repo *sales.Repository
}

// NewService constructs the report service.
func NewService(repo *sales.Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	return &Service{repo: repo}, nil
}

// WriteSalesCSV streams the sales report: one row per sold line item with
// cost and profit, computed from the snapshots so later catalog edits do not
// rewrite history.
func (s *Service) WriteSalesCSV(ctx context.Context, w io.Writer, from, to *time.Time) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	transactions, err := s.repo.List(ctx, from, to, 0, 0)
	if err != nil {
		return err
	}

	for _, txn := range transactions {
		for _, item := range txn.Items {
			lineTotal := item.EffectivePrice * int64(item.Quantity)
			lineCost := item.CostPrice * int64(item.Quantity)

			discount := ""
			if item.DiscountPct != nil {
				discount = strconv.FormatFloat(*item.DiscountPct, 'f', -1, 64)
			}

			row := []string{
				strconv.FormatUint(uint64(txn.ID), 10),
				txn.OccurredAt.UTC().Format(time.RFC3339),
				item.Name,
				strconv.Itoa(item.Quantity),
				strconv.FormatInt(item.UnitPrice, 10),
				strconv.FormatInt(item.EffectivePrice, 10),
				discount,
				strconv.FormatInt(lineTotal, 10),
				strconv.FormatInt(lineCost, 10),
				strconv.FormatInt(lineTotal-lineCost, 10),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
