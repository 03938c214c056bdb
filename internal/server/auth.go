package server

import (
	"crypto/subtle"
	"net/http"
)

const adminHeader = "X-Admin-Key"

// requireAdmin rejects requests whose X-Admin-Key does not match the
// configured key. With no key configured every request is rejected.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	want := []byte(s.cfg.Admin.Key)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get(adminHeader))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
