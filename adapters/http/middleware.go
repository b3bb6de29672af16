package http

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gruzdev-dev/codex-users/pkg/requestid"
)

var (
	rawNewlines     = strings.NewReplacer("\n", "", "\r", "")
	encodedNewlines = strings.NewReplacer("%0A", "", "%0a", "", "%0D", "", "%0d", "", "\n", "", "\r", "")
)

// CleanPath strips encoded and raw CR/LF from the request path before the
// router sees it.
func CleanPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := *r.URL
		u.Path = rawNewlines.Replace(u.Path)
		u.RawPath = encodedNewlines.Replace(u.RawPath)

		cleaned := r.WithContext(r.Context())
		cleaned.URL = &u
		cleaned.RequestURI = encodedNewlines.Replace(r.RequestURI)

		next.ServeHTTP(w, cleaned)
	})
}

// Logging tags each request with an id and logs it once the response is
// written.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestid.Header)
		if id == "" {
			id = requestid.New()
		}
		w.Header().Set(requestid.Header, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(requestid.WithCtx(r.Context(), id)))

		log.Printf("[http] request=%s %s %s %d %s", id, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
