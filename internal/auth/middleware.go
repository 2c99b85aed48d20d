package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"

	"fest-engine/internal/config"
	"fest-engine/internal/logger"
)

// Middleware authenticates requests. With an OIDC issuer configured,
// tokens are verified against the provider; otherwise they are
// HMAC-verified with the shared secret. Verified identities are cached
// in Redis (when available) keyed by token, so hot scanners don't pay
// the verification cost on every request.
func Middleware(cfg config.AuthConfig, cache *ClaimsCache, log *logger.Logger) func(http.Handler) http.Handler {
	var verifier *oidc.IDTokenVerifier
	if cfg.OIDCIssuer != "" {
		provider, err := oidc.NewProvider(context.Background(), cfg.OIDCIssuer)
		if err != nil {
			panic(fmt.Sprintf("Failed to create OIDC provider: %v", err))
		}
		verifier = provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
		log.Info("AUTH", fmt.Sprintf("OIDC verification enabled, issuer %s", cfg.OIDCIssuer))
	} else {
		log.Warn("AUTH", "OIDC_ISSUER not set, falling back to HMAC token verification")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			if cache != nil {
				if id, ok := cache.Get(r.Context(), rawToken); ok {
					next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
					return
				}
			}

			var id *Identity
			if verifier != nil {
				idToken, err := verifier.Verify(r.Context(), rawToken)
				if err != nil {
					http.Error(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
					return
				}
				var claims Identity
				if err := idToken.Claims(&claims); err != nil || claims.UserID == "" {
					http.Error(w, "failed to parse claims", http.StatusUnauthorized)
					return
				}
				id = &claims
			} else {
				id, err = ParseHMACToken(rawToken, cfg.JWTSecret)
				if err != nil {
					http.Error(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
					return
				}
			}

			if cache != nil {
				cache.Put(r.Context(), rawToken, id)
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
