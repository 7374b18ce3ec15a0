package middleware

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"recruiter-backend/pkg/auth"
	"recruiter-backend/pkg/common"

	"go.uber.org/zap"
)

// Authenticate validates the bearer token, applies IP and per-user rate
// limits, and stamps the authenticated user onto the context as the actor
// recorded in entity audit fields.
//
// Behind API Gateway the JWT authorizer already validated the token; in that
// case the user context arrives in headers and local validation is skipped.
func Authenticate(validator *auth.JWTValidator, ipLimiter, userLimiter auth.RateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			// The limiter owns the fail-open/fail-closed decision; an error
			// alongside allowed=true means it chose to let the request pass.
			allowed, err := ipLimiter.Allow(r.Context(), "ip:"+clientIP)
			if err != nil {
				logger.Error("Rate limiter error", zap.Error(err))
			}
			if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			user := userFromGatewayHeaders(r)
			if user == nil {
				token := extractToken(r)
				if token == "" {
					respondUnauthorized(w, "Missing authentication token")
					return
				}

				claims, err := validator.ValidateToken(token)
				if err != nil {
					logger.Warn("Invalid token",
						zap.Error(err),
						zap.String("ip", clientIP),
						zap.String("path", r.URL.Path),
					)
					switch err {
					case auth.ErrExpiredToken:
						respondUnauthorized(w, "Token has expired")
					case auth.ErrInvalidSignature:
						respondUnauthorized(w, "Invalid token signature")
					default:
						respondUnauthorized(w, "Invalid token")
					}
					return
				}
				user = &auth.UserContext{
					UserID: claims.UserID,
					Email:  claims.Email,
					Roles:  claims.Roles,
				}
			}

			allowed, err = userLimiter.Allow(r.Context(), "user:"+user.UserID)
			if err != nil {
				logger.Error("User rate limiter error", zap.Error(err))
			}
			if !allowed {
				respondWithError(w, http.StatusTooManyRequests, "User rate limit exceeded")
				return
			}

			ctx := auth.SetUserInContext(r.Context(), user)
			ctx = common.WithActor(ctx, user.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userFromGatewayHeaders trusts the user headers the Lambda entrypoint sets
// after the API Gateway JWT authorizer has run. Outside Lambda these headers
// are ignored entirely.
func userFromGatewayHeaders(r *http.Request) *auth.UserContext {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") == "" {
		return nil
	}
	if r.Header.Get("X-API-Gateway-Authorized") != "true" {
		return nil
	}
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		return nil
	}

	roles := []string{"authenticated"}
	if raw := r.Header.Get("X-User-Roles"); raw != "" {
		roles = strings.Split(raw, ",")
	}
	return &auth.UserContext{
		UserID: userID,
		Email:  r.Header.Get("X-User-Email"),
		Roles:  roles,
	}
}

// RequireRole creates middleware that requires one of the given roles
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				respondUnauthorized(w, "Unauthorized")
				return
			}

			for _, required := range roles {
				for _, role := range user.Roles {
					if role == required {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			respondWithError(w, http.StatusForbidden, "Insufficient permissions")
		})
	}
}

// extractToken extracts the JWT token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
		return authHeader
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// getClientIP extracts the client IP address
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    http.StatusUnauthorized,
	})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    code,
	})
}
