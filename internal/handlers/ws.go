package handlers

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"phakamani-backend/internal/middleware"
	"phakamani-backend/internal/models"
	"phakamani-backend/internal/services"
	"phakamani-backend/internal/stream"
)

const (
	wsReadTimeout  = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// SocketHandler serves the same reply pipeline as ChatHandler.Stream over a
// WebSocket: the client sends one {"message"} frame and receives one text
// frame per token, then a "\n" frame and a normal close.
type SocketHandler struct {
	jwt       *middleware.JWTAuth
	responder *services.Responder
	pacer     *stream.Pacer
	upgrader  websocket.Upgrader
	log       *zap.Logger
}

func NewSocketHandler(jwt *middleware.JWTAuth, responder *services.Responder, pacer *stream.Pacer, allowedOrigins []string, log *zap.Logger) *SocketHandler {
	return &SocketHandler{
		jwt:       jwt,
		responder: responder,
		pacer:     pacer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		log: log,
	}
}

func (h *SocketHandler) Stream(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		writeJSON(w, http.StatusUnauthorized, errorResp(string(middleware.Unauthenticated), "Missing token", r))
		return
	}
	if _, err := h.jwt.ParseToken(tokenStr); err != nil {
		var authErr *middleware.AuthError
		if errors.As(err, &authErr) {
			writeJSON(w, http.StatusUnauthorized, errorResp(string(authErr.Kind), authErr.Message, r))
			return
		}
		writeJSON(w, http.StatusUnauthorized, errorResp(string(middleware.TokenInvalid), "Invalid token", r))
		return
	}

	chatID, ok := parseChatID(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var req models.MessageRequest
	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	if err := conn.ReadJSON(&req); err != nil {
		closeWith(conn, websocket.CloseUnsupportedData, "Invalid JSON body")
		return
	}

	text, err := h.responder.Reply(r.Context(), chatID, req.Message)
	if err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, err.Error())
		return
	}

	sink := stream.SinkFunc(func(chunk string) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteMessage(websocket.TextMessage, []byte(chunk))
	})
	if err := h.pacer.Stream(r.Context(), text, sink); err != nil {
		h.log.Debug("websocket stream ended early", zap.String("chat_id", chatID.String()), zap.Error(err))
		return
	}

	closeWith(conn, websocket.CloseNormalClosure, "")
}

func closeWith(conn *websocket.Conn, code int, text string) {
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}
