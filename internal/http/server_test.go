package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brankas/internal/cache"
	"brankas/internal/core"
	"brankas/internal/log"
	"brankas/internal/objectstore"
	"brankas/internal/services"
	"brankas/internal/storage"
	"brankas/internal/storage/memory"
)

const testUser = "user-1"

type testServer struct {
	srv   *Server
	store *memory.Store
	dir   string
}

func newTestServer(t *testing.T, ready func(context.Context) error) *testServer {
	t.Helper()
	store := memory.New()
	dir := t.TempDir()
	objects, err := objectstore.NewLocalStore(dir, "http://localhost:8081/files")
	require.NoError(t, err)

	dash := services.NewDashboardService(store, cache.NewUserPeriodCache[services.Dashboard](16, time.Minute), nil)
	svc := Services{
		Accounts:     services.NewAccountService(store, dash, nil),
		Transactions: services.NewTransactionService(store, objects, dash, nil),
		Categories:   services.NewCategoryService(store, dash, nil),
		Budgets:      services.NewBudgetService(store, nil),
		Planning:     services.NewPlanningService(store, nil),
		Profiles:     services.NewProfileService(store, objects, dash, nil),
		Dashboard:    dash,
	}
	srv := NewServer(":0", svc, Options{
		Logger:    log.Discard(),
		RateLimit: 1000,
		FilesDir:  dir,
		Ready:     ready,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{srv: srv, store: store, dir: dir}
}

// do sends a request as testUser. body is JSON-encoded unless it is a string.
func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(UserHeader, testUser)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func (ts *testServer) account(t *testing.T, name string, typ core.AccountType, balance string) core.Account {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/api/accounts", map[string]any{"name": name, "type": typ, "balance": balance})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[core.Account](t, rr)
}

func (ts *testServer) balance(t *testing.T, id int64) decimal.Decimal {
	t.Helper()
	a, err := ts.store.GetAccount(context.Background(), testUser, id)
	require.NoError(t, err)
	return a.Balance
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, func(context.Context) error { return nil })

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		ts.srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"), path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"), path)
	}

	down := newTestServer(t, func(context.Context) error { return errors.New("db gone") })
	rr := httptest.NewRecorder()
	down.srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "not_ready")
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t, nil)
	bank := ts.account(t, "BCA", core.AccountBank, "1000")
	rr := ts.do(t, http.MethodPost, "/api/transactions", map[string]any{
		"date": "2024-06-15", "description": "Lunch", "category": core.LabelExpense,
		"subcategory": "Food", "amount": "25", "account_id": bank.ID,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "transactions_created_total 1\n")
	assert.Contains(t, rr.Body.String(), "http_requests_total 3\n")
	assert.Contains(t, rr.Body.String(), "dashboard_cache_entries")
}

func TestAPIRequiresUser(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, id := range []string{"", "   ", "a/b", strings.Repeat("u", 200)} {
		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		req.Header.Set(UserHeader, id)
		rr := httptest.NewRecorder()
		ts.srv.Handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "user %q", id)
	}
}

func TestAccountsCRUD(t *testing.T) {
	ts := newTestServer(t, nil)

	bank := ts.account(t, "  BCA  ", core.AccountBank, "1000000")
	assert.Equal(t, "BCA", bank.Name)
	assert.True(t, bank.OpeningBalance.Equal(decimal.NewFromInt(1000000)))

	rr := ts.do(t, http.MethodPost, "/api/accounts", map[string]any{"name": "bca", "type": core.AccountCash})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "name", decode[ErrorBody](t, rr).Field)

	rr = ts.do(t, http.MethodPatch, "/api/accounts/"+itoa(bank.ID), map[string]any{"name": "BCA Main", "savings": true})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[core.Account](t, rr)
	assert.Equal(t, "BCA Main", updated.Name)
	assert.True(t, updated.Savings)

	rr = ts.do(t, http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.Account](t, rr), 1)

	rr = ts.do(t, http.MethodGet, "/api/accounts/"+itoa(bank.ID)+"/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(t, http.MethodDelete, "/api/accounts/"+itoa(bank.ID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/accounts/"+itoa(bank.ID), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/accounts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTransactionLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	bank := ts.account(t, "BCA", core.AccountBank, "1000000")
	cash := ts.account(t, "Cash", core.AccountCash, "0")

	// withdraw-cash ignores the submitted destination and credits Cash
	rr := ts.do(t, http.MethodPost, "/api/transactions", map[string]any{
		"date": "2024-06-15", "description": "ATM", "category": core.LabelTransfer,
		"subcategory": core.SubWithdrawCash, "amount": "200000", "account_id": bank.ID,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	tx := decode[core.Transaction](t, rr)
	assert.Equal(t, cash.ID, tx.DestinationID)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(-200000)))
	assert.True(t, ts.balance(t, bank.ID).Equal(decimal.NewFromInt(800000)))
	assert.True(t, ts.balance(t, cash.ID).Equal(decimal.NewFromInt(200000)))

	// update to an expense of 50000 from cash
	rr = ts.do(t, http.MethodPut, "/api/transactions/"+itoa(tx.ID), map[string]any{
		"date": "2024-06-15", "description": "Groceries", "category": core.LabelExpense,
		"subcategory": "Food", "amount": "50000", "account_id": cash.ID,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, ts.balance(t, bank.ID).Equal(decimal.NewFromInt(1000000)))
	assert.True(t, ts.balance(t, cash.ID).Equal(decimal.NewFromInt(-50000)))

	rr = ts.do(t, http.MethodPost, "/api/transactions/"+itoa(tx.ID)+"/struck", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[core.Transaction](t, rr).Struck)

	rr = ts.do(t, http.MethodGet, "/api/transactions?account_id="+itoa(cash.ID)+"&type=expense", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	page := decode[services.TransactionPage](t, rr)
	assert.Equal(t, 1, page.Total)

	rr = ts.do(t, http.MethodGet, "/api/transactions/export.csv", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rr.Body.String(), "Groceries")

	rr = ts.do(t, http.MethodDelete, "/api/transactions/"+itoa(tx.ID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, ts.balance(t, cash.ID).IsZero())

	rr = ts.do(t, http.MethodGet, "/api/transactions/"+itoa(tx.ID), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTransactionErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	bank := ts.account(t, "BCA", core.AccountBank, "1000")

	tests := []struct {
		name   string
		body   any
		status int
		field  string
	}{
		{"malformed json", `{"amount":`, http.StatusBadRequest, ""},
		{"unknown field", `{"amount_cents": 100}`, http.StatusBadRequest, ""},
		{"zero amount", map[string]any{"date": "2024-06-15", "description": "x", "category": core.LabelExpense, "subcategory": "Food", "amount": "0", "account_id": bank.ID}, http.StatusUnprocessableEntity, "amount"},
		{"no cash account", map[string]any{"date": "2024-06-15", "description": "ATM", "category": core.LabelTransfer, "subcategory": core.SubWithdrawCash, "amount": "10", "account_id": bank.ID}, http.StatusUnprocessableEntity, ""},
		{"self transfer", map[string]any{"date": "2024-06-15", "description": "x", "category": core.LabelTransfer, "subcategory": core.SubAllocateTo, "amount": "10", "account_id": bank.ID, "destination_account_id": bank.ID}, http.StatusUnprocessableEntity, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, http.MethodPost, "/api/transactions", tt.body)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			if tt.field != "" {
				assert.Equal(t, tt.field, decode[ErrorBody](t, rr).Field)
			}
		})
	}
	assert.True(t, ts.balance(t, bank.ID).Equal(decimal.NewFromInt(1000)), "rejected writes leave balances alone")
}

func TestReceiptUploadIsServed(t *testing.T) {
	ts := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "struk.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("receipt body"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/receipts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(UserHeader, testUser)
	rr := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	url := decode[map[string]string](t, rr)["url"]
	require.True(t, strings.HasPrefix(url, "http://localhost:8081/files/receipts/"+testUser+"/"), url)

	path := strings.TrimPrefix(url, "http://localhost:8081")
	rr = httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "receipt body", rr.Body.String())

	_, err = os.Stat(filepath.Join(ts.dir, filepath.FromSlash(strings.TrimPrefix(path, "/files/"))))
	assert.NoError(t, err)
}

func TestCategoriesAndBudgets(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(t, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	tree := decode[[]core.Category](t, rr)
	assert.Equal(t, core.LabelTransfer, tree[len(tree)-1].Name)

	var expenseRoot core.Category
	for _, c := range tree {
		if c.Type == core.CategoryExpense {
			expenseRoot = c
		}
	}
	require.NotZero(t, expenseRoot.ID)

	rr = ts.do(t, http.MethodPost, "/api/categories", map[string]any{"name": "Pets", "type": core.CategoryExpense, "parent_id": expenseRoot.ID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	pets := decode[core.Category](t, rr)

	rr = ts.do(t, http.MethodPatch, "/api/categories/"+itoa(pets.ID), map[string]any{"name": "Pet care"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.do(t, http.MethodGet, "/api/categories?type=expense", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Pet care")

	rr = ts.do(t, http.MethodDelete, "/api/categories/"+itoa(expenseRoot.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "built-in roots cannot be deleted")

	rr = ts.do(t, http.MethodPost, "/api/budgets", map[string]any{"category": core.LabelExpense, "subcategory": "Pet care", "amount": "500000"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	budget := decode[core.Budget](t, rr)

	rr = ts.do(t, http.MethodGet, "/api/budgets", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	statuses := decode[[]core.BudgetStatus](t, rr)
	require.Len(t, statuses, 1)
	assert.Equal(t, core.BudgetOK, statuses[0].State)

	rr = ts.do(t, http.MethodPut, "/api/budgets/"+itoa(budget.ID), map[string]any{"category": core.LabelExpense, "subcategory": "Pet care", "amount": "-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = ts.do(t, http.MethodDelete, "/api/budgets/"+itoa(budget.ID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestPlanningProfileSettingsDashboard(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(t, http.MethodPost, "/api/goals", map[string]any{"name": "Laptop", "target": "15000000", "progress": "0", "deadline": "2025-01-31"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	goal := decode[core.Goal](t, rr)
	rr = ts.do(t, http.MethodPut, "/api/goals/"+itoa(goal.ID), map[string]any{"name": "Laptop", "target": "15000000", "progress": "500000", "deadline": "2025-01-31"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = ts.do(t, http.MethodGet, "/api/goals", nil)
	assert.Len(t, decode[[]core.Goal](t, rr), 1)
	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/goals/"+itoa(goal.ID), nil).Code)

	rr = ts.do(t, http.MethodPost, "/api/debts", map[string]any{"name": "KPR", "total": "100", "remaining": "150", "interest_rate": "0", "minimum_payment": "0", "due_date": "2025-01-31"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "remaining above total")

	rr = ts.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, core.DefaultSettings(testUser), decode[core.Settings](t, rr))

	rr = ts.do(t, http.MethodPatch, "/api/settings", map[string]any{"budget_warning_threshold": 20})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	rr = ts.do(t, http.MethodPatch, "/api/settings", map[string]any{"payroll_date": 25})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 25, decode[core.Settings](t, rr).PayrollDate)

	rr = ts.do(t, http.MethodPatch, "/api/profile", map[string]any{"full_name": " Siti "})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Siti", decode[core.Profile](t, rr).FullName)

	rr = ts.do(t, http.MethodGet, "/api/dashboard?period=weekly", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	dash := decode[services.Dashboard](t, rr)
	assert.Equal(t, 25, dash.Settings.PayrollDate)

	rr = ts.do(t, http.MethodGet, "/api/dashboard?period=hourly", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestWritesAreRateLimited(t *testing.T) {
	store := memory.New()
	srv := NewServer(":0", Services{Accounts: services.NewAccountService(store, nil, nil)}, Options{RateLimit: 2})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	codes := make([]int, 0, 4)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{}`))
		req.Header.Set(UserHeader, testUser)
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set(UserHeader, testUser)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	codes = append(codes, rr.Code)

	assert.Equal(t, []int{422, 422, 429, 200}, codes, "reads are not limited")
}

func TestInternalErrorsAreHidden(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.store.FailOn("ListAccounts", 1, errors.New("disk on fire"))

	rr := ts.do(t, http.MethodGet, "/api/accounts", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "disk on fire")
	assert.Equal(t, "internal error", decode[ErrorBody](t, rr).Error)
}

func TestFailMapsNotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ts.srv.fail(rr, req, errors.Join(errors.New("load"), storage.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func itoa(id int64) string {
	return decimal.NewFromInt(id).String()
}
