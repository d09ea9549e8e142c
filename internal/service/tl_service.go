package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/RiceCakess/holoclips/internal/domain"
	"github.com/RiceCakess/holoclips/internal/history"
	"github.com/RiceCakess/holoclips/internal/hub"
	"github.com/RiceCakess/holoclips/internal/kafka"
	"github.com/RiceCakess/holoclips/internal/registry"
	"github.com/RiceCakess/holoclips/pkg/log"
)

type tlService struct {
	hub      *hub.Hub
	history  history.Service
	producer kafka.EntryProducer
	registry registry.RoomRegistry
}

func NewTLService(h *hub.Hub, hist history.Service, producer kafka.EntryProducer, reg registry.RoomRegistry) RelayService {
	return &tlService{
		hub:      h,
		history:  hist,
		producer: producer,
		registry: reg,
	}
}

func (s *tlService) HandleSubscribe(ctx context.Context, client *hub.Client, msg *domain.SubscribeMessage) error {
	if msg.VideoID == "" || msg.Lang == "" {
		return client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "video_id and lang are required"))
	}

	room := domain.Room{VideoID: msg.VideoID, Lang: msg.Lang}

	// A connection holds at most one subscription. Subscribing again is a
	// room switch.
	if old := client.Viewer.Room(); !old.IsZero() {
		if old == room {
			return client.SendMessage(&domain.SubscribedMessage{
				Type: domain.MsgTypeSubscribed,
				Room: room.Key(),
			})
		}
		s.leaveRoom(ctx, client, old)
	}

	s.hub.JoinRoom(client, room)
	client.Viewer.Join(room)

	if err := s.registry.Register(ctx, room); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoom, room.Key()).Msg("room registration failed")
	}

	return client.SendMessage(&domain.SubscribedMessage{
		Type: domain.MsgTypeSubscribed,
		Room: room.Key(),
	})
}

func (s *tlService) HandleUnsubscribe(ctx context.Context, client *hub.Client) error {
	room := client.Viewer.Room()
	if room.IsZero() {
		return nil
	}
	s.leaveRoom(ctx, client, room)
	client.Viewer.Leave()
	return nil
}

func (s *tlService) HandleTranslation(ctx context.Context, client *hub.Client, msg *domain.TranslationMessage) error {
	room := client.Viewer.Room()
	if room.IsZero() {
		return client.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotInRoom, "subscribe to a room first"))
	}
	if msg.Message == "" {
		return client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "message is required"))
	}

	entry := domain.TranscriptEntry{
		Key:           uuid.NewString(),
		OffsetSeconds: msg.OffsetSeconds,
		Message:       msg.Message,
		Name:          client.Viewer.Name,
		Timestamp:     time.Now().UnixMilli(),
	}

	out := &domain.EntryMessage{
		Type:  domain.MsgTypeEntry,
		Room:  room.Key(),
		Entry: entry,
	}

	if err := s.hub.BroadcastToRoom(room, out, ""); err != nil {
		return err
	}

	if err := s.producer.ProduceEntry(ctx, out); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoom, room.Key()).Str(log.FieldEntryKey, entry.Key).Msg("failed to enqueue entry for persistence")
	}

	return nil
}

func (s *tlService) HandleLoadHistory(ctx context.Context, client *hub.Client, msg *domain.LoadHistoryMessage) error {
	roomKey := msg.Room
	if roomKey == "" {
		roomKey = client.Viewer.Room().Key()
	}

	room, err := domain.ParseRoom(roomKey)
	if err != nil {
		return client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "malformed room"))
	}

	page, err := s.history.GetPage(ctx, room, msg.Before, msg.Partial)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoom, roomKey).Msg("history page failed")
		return client.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "failed to load history"))
	}

	// History pages go only to the requesting client, tagged with the room
	// they were requested under so stale pages can be discarded after a
	// room switch.
	return client.SendMessage(&domain.HistoryPageMessage{
		Type:       domain.MsgTypeHistoryPage,
		Room:       roomKey,
		Entries:    page.Entries,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	})
}

func (s *tlService) HandleDisconnect(ctx context.Context, client *hub.Client) {
	room := client.Viewer.Room()
	if room.IsZero() {
		return
	}
	s.leaveRoom(ctx, client, room)
	client.Viewer.Leave()
}

func (s *tlService) leaveRoom(ctx context.Context, client *hub.Client, room domain.Room) {
	s.hub.LeaveRoom(client, room)

	// Deregister once the room has no subscribers left.
	if s.hub.RoomClientCount(room) == 0 {
		if err := s.registry.Deregister(ctx, room); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldRoom, room.Key()).Msg("room deregistration failed")
		}
	}
}
