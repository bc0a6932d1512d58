package http

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const userKey ctxKey = iota

// UserHeader carries the authenticated user id, set by the auth proxy in
// front of the API.
const UserHeader = "X-User-ID"

const maxUserIDLen = 128

// userID returns the user attached by requireUser.
func userID(ctx context.Context) string {
	id, _ := ctx.Value(userKey).(string)
	return id
}

// requireUser rejects requests without a usable user header.
func requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := sanitizeInput(r.Header.Get(UserHeader))
		if id == "" || len(id) > maxUserIDLen || strings.ContainsAny(id, "/\\") {
			UnauthorizedError("missing or invalid " + UserHeader + " header").Write(w)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, id)))
	}
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
