package handlers

import (
	"net/http"
	"strings"

	"github.com/shopward/backoffice/internal/platform/requestctx"
)

const (
	actorIDHeader   = "X-Actor-Id"
	actorTypeHeader = "X-Actor-Type"

	defaultActorType = "staff"
)

// ActorMiddleware lifts the acting staff identity from the gateway-injected
// headers into the request context. Authentication itself happens upstream;
// this layer only attributes writes for auditing.
func ActorMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(actorIDHeader))
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			actorType := strings.TrimSpace(r.Header.Get(actorTypeHeader))
			if actorType == "" {
				actorType = defaultActorType
			}
			ctx := requestctx.WithActor(r.Context(), requestctx.Actor{ID: id, Type: actorType})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
