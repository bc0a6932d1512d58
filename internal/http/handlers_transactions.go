package http

import (
	"bytes"
	"net/http"
	"time"

	"brankas/internal/core"
	"brankas/internal/log"
)

// handleListTransactions returns one page of the filtered transactions.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := ParseTransactionQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.svc.Transactions.Query(r.Context(), userID(r.Context()), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var d core.TransactionDraft
	if err := decodeJSON(w, r, &d); err != nil {
		s.fail(w, r, err)
		return
	}
	user := userID(r.Context())
	tx, err := s.svc.Transactions.Create(r.Context(), user, sanitizeDraft(d))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.txCreated.Add(1)
	s.structLog.LogTransaction(r.Context(), log.OpCreate, user, tx)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tx, err := s.svc.Transactions.Get(r.Context(), userID(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// handleUpdateTransaction replaces every editable field; balances move by
// the difference between the old and new legs.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var d core.TransactionDraft
	if err := decodeJSON(w, r, &d); err != nil {
		s.fail(w, r, err)
		return
	}
	user := userID(r.Context())
	tx, err := s.svc.Transactions.Update(r.Context(), user, id, sanitizeDraft(d))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.structLog.LogTransaction(r.Context(), log.OpUpdate, user, tx)
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Transactions.Delete(r.Context(), userID(r.Context()), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleStruck(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tx, err := s.svc.Transactions.ToggleStruck(r.Context(), userID(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// handleExportTransactions streams the filtered set as CSV. Paging
// parameters are ignored.
func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := ParseTransactionQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	// buffered so a failure can still produce a JSON error
	var buf bytes.Buffer
	if err := s.svc.Transactions.ExportCSV(r.Context(), userID(r.Context()), q, &buf); err != nil {
		s.fail(w, r, err)
		return
	}
	filename := "transactions-" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleUploadReceipt stores a receipt image and returns the URL to put in
// a draft's receipt_url.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	f, err := formFile(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer f.body.Close()

	url, err := s.svc.Transactions.UploadReceipt(r.Context(), userID(r.Context()), f.name, f.contentType, f.body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
