// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"brankas/internal/core"
	"brankas/internal/services"
)

const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 10 << 20
)

// requestError is a malformed request, answered with 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads one JSON object into dst. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return badRequest("request body too large")
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		default:
			return badRequest("invalid JSON body: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// pathID parses the {id} wildcard of the matched route.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", raw)
	}
	return id, nil
}

func queryInt(query url.Values, key string) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("invalid %s %q", key, v)
	}
	return n, nil
}

func queryDate(query url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, badRequest("invalid %s %q: want YYYY-MM-DD", key, v)
	}
	return d, nil
}

// ParseTransactionQuery reads the list filters from the query string.
// Absent parameters mean no filter.
func ParseTransactionQuery(query url.Values) (services.TransactionQuery, error) {
	q := services.TransactionQuery{
		Category: sanitizeInput(query.Get("category")),
		Search:   sanitizeInput(query.Get("search")),
		SortBy:   services.SortField(strings.TrimSpace(query.Get("sort"))),
	}

	if v := strings.TrimSpace(query.Get("account_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return q, badRequest("invalid account_id %q", v)
		}
		q.AccountID = id
	}

	switch t := core.TransactionType(strings.TrimSpace(query.Get("type"))); t {
	case "", core.TypeIncome, core.TypeExpense, core.TypeTransfer:
		q.Type = t
	default:
		return q, badRequest("invalid type %q", t)
	}

	switch order := strings.ToLower(strings.TrimSpace(query.Get("order"))); order {
	case "", "desc":
		q.Desc = true
	case "asc":
	default:
		return q, badRequest("invalid order %q", order)
	}

	var err error
	if q.From, err = queryDate(query, "from"); err != nil {
		return q, err
	}
	if q.To, err = queryDate(query, "to"); err != nil {
		return q, err
	}
	if q.Page, err = queryInt(query, "page"); err != nil {
		return q, err
	}
	if q.PerPage, err = queryInt(query, "per_page"); err != nil {
		return q, err
	}
	return q, nil
}

// sanitizeDraft cleans the free-text fields of a transaction draft.
func sanitizeDraft(d core.TransactionDraft) core.TransactionDraft {
	d.Description = sanitizeInput(d.Description)
	d.Category = sanitizeInput(d.Category)
	d.Subcategory = sanitizeInput(d.Subcategory)
	d.ReceiptURL = strings.TrimSpace(d.ReceiptURL)
	return d
}

// uploadedFile is one multipart file field.
type uploadedFile struct {
	name        string
	contentType string
	body        io.ReadCloser
}

// formFile reads the "file" field of a multipart upload.
func formFile(w http.ResponseWriter, r *http.Request) (uploadedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return uploadedFile{}, badRequest("invalid multipart upload: %v", err)
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return uploadedFile{}, badRequest("missing file field")
	}
	ct := hdr.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return uploadedFile{name: hdr.Filename, contentType: ct, body: f}, nil
}
