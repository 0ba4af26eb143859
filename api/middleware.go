package api

import (
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/Brosquire/nodemaster/config"
	"github.com/Brosquire/nodemaster/database"
	"github.com/Brosquire/nodemaster/errs"
	"github.com/Brosquire/nodemaster/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type authMiddleware struct {
	responder Responder
	users     *database.UserRepo
	cfg       *config.Config
}

func newAuthMiddleware(users *database.UserRepo, cfg *config.Config) authMiddleware {
	logger := log.With().Str("handlerName", "authMiddleware").Logger()
	return authMiddleware{
		responder: NewResponder(logger),
		users:     users,
		cfg:       cfg,
	}
}

// protect verifies the bearer token (with the token cookie as fallback),
// resolves the acting principal and stashes it on the request context.
func (m authMiddleware) protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tokenString string
		if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else if cookie, err := r.Cookie("token"); err == nil {
			tokenString = cookie.Value
		}
		if tokenString == "" {
			m.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
			return
		}

		id, err := parseToken(tokenString, m.cfg.JWTSecret)
		if err != nil {
			m.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
			return
		}

		user, err := m.users.FindByID(r.Context(), id)
		if err != nil {
			m.responder.WriteError(w, errs.NewDatabaseError("find", "user", err))
			return
		}
		if user == nil {
			m.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
			return
		}

		next.ServeHTTP(w, r.WithContext(ctxWithUser(r.Context(), user)))
	})
}

// authorize rejects principals whose role is not in the allowed set.
func (m authMiddleware) authorize(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := userFromCtx(r.Context())
			if err != nil {
				m.responder.WriteError(w, errs.NewUnauthorizedError("not authorized to access this route"))
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.responder.WriteError(w, errs.NewForbiddenError(user.Role))
		})
	}
}

// canModify implements the ownership check applied by every mutating
// handler: the owner may modify their resource, an admin may modify any.
func canModify(principal *models.User, ownerID uuid.UUID) bool {
	return principal.Role == models.RoleAdmin || principal.ID == ownerID
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

// requestLogger logs each request with its status and duration, and
// recovers panics into a 500 instead of dropping the connection.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", rec).
					Str("stack", string(debug.Stack())).
					Msg("recovered from panic")
				if !srw.wroteHeader {
					srw.WriteHeader(http.StatusInternalServerError)
				}
			}
		}()

		next.ServeHTTP(srw, r)

		event := log.Info()
		if srw.status >= http.StatusInternalServerError {
			event = log.Error()
		} else if srw.status >= http.StatusBadRequest {
			event = log.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", srw.status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP request")
	})
}

// limiterStore keeps one token bucket per client address. The map is wiped
// when it grows past maxLimiterEntries to bound memory.
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

const maxLimiterEntries = 4096

func newLimiterStore(perSecond float64, burst int) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.limiters) > maxLimiterEntries {
		s.limiters = make(map[string]*rate.Limiter)
	}
	limiter, ok := s.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(s.rate, s.burst)
		s.limiters[key] = limiter
	}
	return limiter
}

// rateLimit throttles a route per client address. Used on login to slow
// down credential stuffing.
func rateLimit(store *limiterStore, responder Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if !store.get(host).Allow() {
				responder.WriteError(w, errs.NewApiErr(http.StatusTooManyRequests, "too many requests, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
