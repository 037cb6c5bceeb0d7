package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/vendora-backend/api/responses"
	pkgAuth "github.com/angelmondragon/vendora-backend/pkg/auth"
	"github.com/angelmondragon/vendora-backend/pkg/auth/session"
	"github.com/angelmondragon/vendora-backend/pkg/config"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/google/uuid"
)

type principal struct {
	id       uuid.UUID
	role     enums.ActorRole
	jti      string
	shopName string
}

type tokenParser func(cfg config.JWTConfig, token string) (principal, error)

func parseUser(cfg config.JWTConfig, token string) (principal, error) {
	claims, err := pkgAuth.ParseUserToken(cfg, token)
	if err != nil {
		return principal{}, err
	}
	return principal{id: claims.UserID, role: enums.ActorRoleUser, jti: claims.ID}, nil
}

func parseVendor(cfg config.JWTConfig, token string) (principal, error) {
	claims, err := pkgAuth.ParseVendorToken(cfg, token)
	if err != nil {
		return principal{}, err
	}
	return principal{id: claims.VendorID, role: enums.ActorRoleVendor, jti: claims.ID, shopName: claims.ShopName}, nil
}

// RequireUser admits only shopper tokens, read from the user cookie or a bearer header.
func RequireUser(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, verifier, logg, []string{cfg.UserCookieName}, parseUser)
}

// RequireVendor admits only vendor tokens, read from the vendor cookie or a bearer header.
func RequireVendor(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, verifier, logg, []string{cfg.VendorCookieName}, parseVendor)
}

// RequireActor admits either role. The vendor cookie wins when both are present.
func RequireActor(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, verifier, logg, []string{cfg.VendorCookieName, cfg.UserCookieName}, parseVendor, parseUser)
}

func authenticate(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger, cookies []string, parsers ...tokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r, cookies)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			var (
				p   principal
				err error
			)
			for _, parse := range parsers {
				if p, err = parse(cfg, token); err == nil {
					break
				}
			}
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if p.jti == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), p.jti)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := WithActor(r.Context(), p.id, p.role, p.jti)
			if p.shopName != "" {
				ctx = context.WithValue(ctx, ctxShopName, p.shopName)
			}
			if logg != nil {
				ctx = logg.WithActor(ctx, p.id.String(), string(p.role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken prefers the first non-empty cookie, then falls back to the Authorization header.
func extractToken(r *http.Request, cookies []string) string {
	for _, name := range cookies {
		if name == "" {
			continue
		}
		if c, err := r.Cookie(name); err == nil {
			if v := strings.TrimSpace(c.Value); v != "" {
				return v
			}
		}
	}
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
