package service

import (
	"context"

	"github.com/RiceCakess/holoclips/internal/domain"
	"github.com/RiceCakess/holoclips/internal/hub"
)

// RelayService implements the room protocol: subscriptions, live
// translation fan-out, and history pages over the same connection.
type RelayService interface {
	HandleSubscribe(ctx context.Context, client *hub.Client, msg *domain.SubscribeMessage) error
	HandleUnsubscribe(ctx context.Context, client *hub.Client) error
	HandleTranslation(ctx context.Context, client *hub.Client, msg *domain.TranslationMessage) error
	HandleLoadHistory(ctx context.Context, client *hub.Client, msg *domain.LoadHistoryMessage) error
	HandleDisconnect(ctx context.Context, client *hub.Client)
}
