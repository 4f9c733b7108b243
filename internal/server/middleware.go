package server

import (
	"fmt"
	"net/http"

	"github.com/pfrederiksen/rota-merge/internal/logger"
)

// withCORS allows any origin and answers preflight requests directly.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRecover turns a handler panic into a generic 500 JSON response.
func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			logger.IncrCounter("http.panic")
			logger.Error("API handler panic", logger.Fields{
				"path":   r.URL.Path,
				"method": r.Method,
			}, err)
			jsonResp(w, http.StatusInternalServerError, ErrorResponse{
				Error:   msgInternalError,
				Message: err.Error(),
			})
		}()
		next.ServeHTTP(w, r)
	})
}
