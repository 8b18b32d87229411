package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Clé privée pour le contexte (évite les collisions).
type contextKey struct{ name string }

var userCtxKey = &contextKey{"user_id"}

// OptionalAuth décode le Bearer token sans jamais bloquer la requête :
// header absent, token malformé ou expiré laissent simplement l'appelant
// anonyme. Ce sont les policies personnalisées qui exigent une identité,
// pas le transport — les feeds publics doivent rester servables avec un
// token pourri dans le header.
func OptionalAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr := strings.TrimPrefix(header, "Bearer ")
			token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
				// Vérification stricte de l'algo : empêche un token forgé
				// en "none" ou signé avec un autre schéma.
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				next.ServeHTTP(w, r)
				return
			}

			claims, ok := token.Claims.(*jwt.RegisteredClaims)
			if !ok || claims.Subject == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userCtxKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext récupère l'id utilisateur injecté par OptionalAuth.
// Chaîne vide = anonyme.
func UserFromContext(ctx context.Context) string {
	raw, _ := ctx.Value(userCtxKey).(string)
	return raw
}
