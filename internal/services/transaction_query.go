package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"brankas/internal/core"
	"brankas/internal/log"
	"brankas/internal/storage"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

type SortField string

const (
	SortDate        SortField = "date"
	SortAmount      SortField = "amount"
	SortDescription SortField = "description"
)

// TransactionQuery filters, sorts and pages a user's transactions. Zero
// values mean no filter; the default order is newest first.
type TransactionQuery struct {
	AccountID int64
	Category  string
	Type      core.TransactionType
	Search    string
	From      core.Date
	To        core.Date
	SortBy    SortField
	Desc      bool
	Page      int
	PerPage   int
}

// Normalize fills defaults and clamps paging.
func (q TransactionQuery) Normalize() TransactionQuery {
	switch q.SortBy {
	case SortDate, SortAmount, SortDescription:
	default:
		q.SortBy = SortDate
		q.Desc = true
	}
	if q.PerPage <= 0 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return q
}

type TransactionPage struct {
	Items      []core.Transaction `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalPages int                `json:"total_pages"`
}

// Query returns one page of matching transactions.
func (s *TransactionService) Query(ctx context.Context, userID string, q TransactionQuery) (TransactionPage, error) {
	q = q.Normalize()
	txs, err := s.matching(ctx, userID, q)
	if err != nil {
		return TransactionPage{}, err
	}
	page := TransactionPage{Total: len(txs), Page: q.Page, PerPage: q.PerPage}
	page.TotalPages = (len(txs) + q.PerPage - 1) / q.PerPage
	start := (q.Page - 1) * q.PerPage
	if start < len(txs) {
		end := min(start+q.PerPage, len(txs))
		page.Items = txs[start:end]
	}
	if page.Items == nil {
		page.Items = []core.Transaction{}
	}
	return page, nil
}

var csvHeader = []string{"id", "date", "description", "type", "category", "subcategory", "amount", "account", "destination", "receipt_url", "struck"}

// ExportCSV writes every transaction matching q, ignoring paging.
func (s *TransactionService) ExportCSV(ctx context.Context, userID string, q TransactionQuery, w io.Writer) error {
	q = q.Normalize()
	txs, err := s.matching(ctx, userID, q)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		rec := []string{
			strconv.FormatInt(t.ID, 10),
			t.Date.String(),
			t.Description,
			string(t.Type()),
			t.Category,
			t.Subcategory,
			t.Amount.StringFixed(2),
			t.AccountName,
			t.DestinationName,
			t.ReceiptURL,
			strconv.FormatBool(t.Struck),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	s.logger.DebugContext(ctx, "Transactions exported", log.FieldUserID, userID, "count", len(txs))
	return nil
}

func (s *TransactionService) matching(ctx context.Context, userID string, q TransactionQuery) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID, storage.TransactionFilter{
		AccountID: q.AccountID,
		Category:  q.Category,
		From:      q.From,
		To:        q.To,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := txs[:0]
	for _, t := range txs {
		if q.Type != "" && t.Type() != q.Type {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}
	sortTransactions(out, q.SortBy, q.Desc)
	return out, nil
}

// sortTransactions orders by field with the id as a stable tie-breaker.
func sortTransactions(txs []core.Transaction, by SortField, desc bool) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		var c int
		switch by {
		case SortAmount:
			c = a.Amount.Cmp(b.Amount)
		case SortDescription:
			c = strings.Compare(strings.ToLower(a.Description), strings.ToLower(b.Description))
		default:
			c = a.Date.Compare(b.Date.Time)
		}
		if c == 0 {
			c = cmpInt64(a.ID, b.ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
