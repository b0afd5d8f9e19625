package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/fakhrymubarak/weather-history-api/internal/model"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const msgInternalError = "Internal server error"

// Recoverer turns a handler panic into the structured 500 error body and logs
// the panic with its stack. http.ErrAbortHandler is re-raised so net/http can
// abort the connection.
func Recoverer(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Errorw("Recovered from handler panic",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"request_id", chimw.GetReqID(r.Context()),
					"stack", string(debug.Stack()),
				)

				// Upgraded connections have no usable response.
				if r.Header.Get("Connection") == "Upgrade" {
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Content-Type-Options", "nosniff")
				w.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(w).Encode(model.NewErrorResponse(msgInternalError)); err != nil {
					logger.Errorw("Could not encode JSON response", "error", err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
