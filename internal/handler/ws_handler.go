package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/RiceCakess/holoclips/internal/config"
	"github.com/RiceCakess/holoclips/internal/domain"
	"github.com/RiceCakess/holoclips/internal/hub"
	"github.com/RiceCakess/holoclips/internal/service"
	"github.com/RiceCakess/holoclips/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub     *hub.Hub
	service service.RelayService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.RelayService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "anonymous"
	}

	client := hub.NewClient(uuid.NewString(), name, h.hub, conn, h.wsCfg)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleMessage, h.handleDisconnect)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid message format"))
		return
	}

	clientLogger := log.L().With().Str(log.FieldClientID, client.ID).Logger()
	ctx := log.WithLogger(context.Background(), clientLogger)
	l := log.Ctx(ctx)

	switch base.Type {
	case domain.MsgTypeSubscribe:
		var msg domain.SubscribeMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid subscribe message"))
			return
		}
		if err := h.service.HandleSubscribe(ctx, client, &msg); err != nil {
			l.Error().Err(err).Str(log.FieldClientID, client.ID).Msg("subscribe failed")
		}

	case domain.MsgTypeUnsubscribe:
		if err := h.service.HandleUnsubscribe(ctx, client); err != nil {
			l.Error().Err(err).Str(log.FieldClientID, client.ID).Msg("unsubscribe failed")
		}

	case domain.MsgTypeTranslation:
		var msg domain.TranslationMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid translation message"))
			return
		}
		if err := h.service.HandleTranslation(ctx, client, &msg); err != nil {
			l.Error().Err(err).Str(log.FieldClientID, client.ID).Msg("translation failed")
		}

	case domain.MsgTypeLoadHistory:
		var msg domain.LoadHistoryMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid load_history message"))
			return
		}
		if err := h.service.HandleLoadHistory(ctx, client, &msg); err != nil {
			l.Error().Err(err).Str(log.FieldClientID, client.ID).Msg("load history failed")
		}

	case domain.MsgTypePing:
		client.SendMessage(map[string]string{"type": domain.MsgTypePong})

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "unknown message type"))
	}
}

func (h *WSHandler) handleDisconnect(client *hub.Client) {
	h.service.HandleDisconnect(context.Background(), client)
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/tl/ws", gin.WrapF(h.HandleWebSocket))
}
