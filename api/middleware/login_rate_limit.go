package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/stagepass-live/boxoffice-backend/api/responses"
	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
	"github.com/stagepass-live/boxoffice-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// LoginRateLimitPolicy defines the throttling parameters for the login
// endpoint: a fixed window with per-IP and per-username counters.
type LoginRateLimitPolicy struct {
	window       time.Duration
	ipLimit      int
	accountLimit int
}

// NewLoginRateLimitPolicy builds a policy with the supplied window and limits.
func NewLoginRateLimitPolicy(window time.Duration, ipLimit, accountLimit int) LoginRateLimitPolicy {
	return LoginRateLimitPolicy{window: window, ipLimit: ipLimit, accountLimit: accountLimit}
}

func (p LoginRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.accountLimit > 0)
}

// LoginRateLimit throttles credential guessing on the admin login endpoint.
// When the counter store is unavailable the request is let through; locking
// every operator out because redis blinked is the worse failure mode.
func LoginRateLimit(policy LoginRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.ipLimit > 0 {
				if ip := clientIP(r); ip != "" {
					key := fmt.Sprintf("rl:login:ip:%s", ip)
					if blocked := checkCounter(ctx, store, logg, key, policy.window, int64(policy.ipLimit), "ip"); blocked {
						writeRateLimited(ctx, w)
						return
					}
				}
			}

			if policy.accountLimit > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if username := extractUsername(body); username != "" {
					key := fmt.Sprintf("rl:login:user:%s", hashValue(username))
					if blocked := checkCounter(ctx, store, logg, key, policy.window, int64(policy.accountLimit), "account"); blocked {
						writeRateLimited(ctx, w)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func checkCounter(ctx context.Context, store rateLimiterStore, logg *logger.Logger, key string, window time.Duration, limit int64, scope string) bool {
	count, err := store.IncrWithTTL(ctx, key, window)
	if err != nil {
		if logg != nil {
			logg.Warn(logg.WithField(ctx, "scope", scope), "login rate limit store unavailable, allowing request")
		}
		return false
	}
	if count <= limit {
		return false
	}
	if logg != nil {
		fields := map[string]any{
			"scope":          scope,
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(window.Seconds()),
		}
		logg.Warn(logg.WithFields(ctx, fields), "login rate limit blocked")
	}
	return true
}

func writeRateLimited(ctx context.Context, w http.ResponseWriter) {
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts"))
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractUsername(payload []byte) string {
	var body struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Username))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
