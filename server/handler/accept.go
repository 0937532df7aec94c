package handler

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	adapterwebsocket "bmshooter/server/adapter/websocket"
	"bmshooter/server/domain"
)

var tracer = otel.Tracer("bmshooter/server/handler")

type AcceptHandler struct {
	pubsub      domain.PubSub
	roomManager domain.RoomManager
	opts        []domain.EndpointOption
}

func NewAcceptHandler(pubsub domain.PubSub, roomManager domain.RoomManager, opts ...domain.EndpointOption) *AcceptHandler {
	return &AcceptHandler{pubsub: pubsub, roomManager: roomManager, opts: opts}
}

func (h *AcceptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // 開発用: Origin チェックをスキップ
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to accept", "err", err)
		return
	}

	session := domain.NewSession()
	ctx, span := tracer.Start(ctx, "websocket.session",
		trace.WithAttributes(attribute.String("session.id", session.ID().String())),
	)
	defer span.End()

	transport := adapterwebsocket.NewTransportFrom(conn)
	connection := domain.NewConnection(transport)
	endpoint, err := domain.NewSessionEndpoint(session, connection, h.pubsub, h.roomManager, h.opts...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create session endpoint", "err", err)
		span.SetStatus(codes.Error, err.Error())
		connection.Close(domain.CloseInternalError, "")
		return
	}
	slog.DebugContext(ctx, "accepted new connection", "sessionID", session.ID())
	if err := endpoint.Run(); err != nil {
		slog.ErrorContext(ctx, "failed to run session endpoint", "sessionID", session.ID(), "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	slog.DebugContext(ctx, "session endpoint finished", "sessionID", session.ID())
}
