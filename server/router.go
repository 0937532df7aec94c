package server

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bmshooter/server/domain"
	"bmshooter/server/handler"
)

// Route はWebSocketの受け口とヘルスチェックを登録したハンドラを返します。リクエストはトレースされます。
func Route(pubsub domain.PubSub, roomManager domain.RoomManager, room handler.RoomStats, opts ...domain.EndpointOption) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", handler.NewAcceptHandler(pubsub, roomManager, opts...))
	mux.Handle("/healthz", handler.NewHealthHandler(room))
	return otelhttp.NewHandler(mux, "bmshooter",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
