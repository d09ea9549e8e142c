package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/RiceCakess/holoclips/internal/config"
	"github.com/RiceCakess/holoclips/internal/domain"
	"github.com/RiceCakess/holoclips/internal/history"
	"github.com/RiceCakess/holoclips/internal/hub"
)

type fakeHistory struct {
	page *history.Page
	err  error
}

func (f *fakeHistory) GetPage(context.Context, domain.Room, string, int) (*history.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

type fakeProducer struct {
	mu       sync.Mutex
	produced []*domain.EntryMessage
}

func (f *fakeProducer) ProduceEntry(_ context.Context, msg *domain.EntryMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.produced = append(f.produced, msg)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func (f *fakeProducer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.produced)
}

type fakeRegistry struct {
	mu           sync.Mutex
	registered   map[string]int
	deregistered map[string]int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		registered:   make(map[string]int),
		deregistered: make(map[string]int),
	}
}

func (f *fakeRegistry) Register(_ context.Context, room domain.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered[room.Key()]++
	return nil
}

func (f *fakeRegistry) Deregister(_ context.Context, room domain.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deregistered[room.Key()]++
	return nil
}

func (f *fakeRegistry) StartHeartbeat() {}
func (f *fakeRegistry) StopHeartbeat() {}
func (f *fakeRegistry) Close() error   { return nil }

func (f *fakeRegistry) deregisterCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deregistered[key]
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
	}
}

// newTestClient builds a client that is never attached to a real
// connection; sent messages are read straight off the Send channel.
func newTestClient(t *testing.T, h *hub.Hub, name string) *hub.Client {
	t.Helper()
	c := hub.NewClient(name+"-id", name, h, nil, testWSConfig())
	h.Register(c)
	return c
}

func recvMessage(t *testing.T, c *hub.Client, into interface{}) {
	t.Helper()
	select {
	case data := <-c.Send:
		if err := json.Unmarshal(data, into); err != nil {
			t.Fatalf("unmarshal sent message: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("no message sent")
	}
}

func newTestService(t *testing.T) (RelayService, *hub.Hub, *fakeProducer, *fakeRegistry) {
	t.Helper()
	h := hub.NewHub(testWSConfig())
	go h.Run()

	producer := &fakeProducer{}
	reg := newFakeRegistry()
	hist := &fakeHistory{page: &history.Page{}}
	return NewTLService(h, hist, producer, reg), h, producer, reg
}

func TestSubscribeJoinsRoom(t *testing.T) {
	svc, h, _, _ := newTestService(t)
	client := newTestClient(t, h, "alice")

	err := svc.HandleSubscribe(context.Background(), client, &domain.SubscribeMessage{
		Type: domain.MsgTypeSubscribe, VideoID: "vid1", Lang: "en",
	})
	if err != nil {
		t.Fatalf("HandleSubscribe: %v", err)
	}

	var reply domain.SubscribedMessage
	recvMessage(t, client, &reply)
	if reply.Type != domain.MsgTypeSubscribed || reply.Room != "vid1/en" {
		t.Fatalf("got reply %+v, want subscribed to vid1/en", reply)
	}

	room := domain.Room{VideoID: "vid1", Lang: "en"}
	if got := h.RoomClientCount(room); got != 1 {
		t.Fatalf("room has %d clients, want 1", got)
	}
	if got := client.Viewer.Room(); got != room {
		t.Fatalf("viewer room = %+v, want %+v", got, room)
	}
}

func TestSubscribeSwitchesRoom(t *testing.T) {
	svc, h, _, reg := newTestService(t)
	client := newTestClient(t, h, "alice")
	ctx := context.Background()

	if err := svc.HandleSubscribe(ctx, client, &domain.SubscribeMessage{VideoID: "vid1", Lang: "en"}); err != nil {
		t.Fatalf("HandleSubscribe: %v", err)
	}
	<-client.Send

	if err := svc.HandleSubscribe(ctx, client, &domain.SubscribeMessage{VideoID: "vid2", Lang: "ja"}); err != nil {
		t.Fatalf("HandleSubscribe: %v", err)
	}
	<-client.Send

	if got := h.RoomClientCount(domain.Room{VideoID: "vid1", Lang: "en"}); got != 0 {
		t.Fatalf("old room has %d clients, want 0", got)
	}
	if got := h.RoomClientCount(domain.Room{VideoID: "vid2", Lang: "ja"}); got != 1 {
		t.Fatalf("new room has %d clients, want 1", got)
	}
	if got := reg.deregisterCount("vid1/en"); got != 1 {
		t.Fatalf("old room deregistered %d times, want 1", got)
	}
}

func TestTranslationBroadcastsAndPersists(t *testing.T) {
	svc, h, producer, _ := newTestService(t)
	translator := newTestClient(t, h, "translator")
	viewer := newTestClient(t, h, "viewer")
	ctx := context.Background()

	for _, c := range []*hub.Client{translator, viewer} {
		if err := svc.HandleSubscribe(ctx, c, &domain.SubscribeMessage{VideoID: "vid1", Lang: "en"}); err != nil {
			t.Fatalf("HandleSubscribe: %v", err)
		}
		<-c.Send
	}

	err := svc.HandleTranslation(ctx, translator, &domain.TranslationMessage{
		Message: "hello world", OffsetSeconds: 42.5,
	})
	if err != nil {
		t.Fatalf("HandleTranslation: %v", err)
	}

	var got domain.EntryMessage
	recvMessage(t, viewer, &got)
	if got.Type != domain.MsgTypeEntry || got.Room != "vid1/en" {
		t.Fatalf("got %+v, want entry for vid1/en", got)
	}
	if got.Entry.Message != "hello world" || got.Entry.OffsetSeconds != 42.5 {
		t.Fatalf("entry = %+v, want message and offset preserved", got.Entry)
	}
	if got.Entry.Name != "translator" {
		t.Fatalf("entry author = %q, want %q", got.Entry.Name, "translator")
	}
	if got.Entry.Key == "" {
		t.Fatal("entry has no key")
	}

	// The translator gets the echo too.
	var echo domain.EntryMessage
	recvMessage(t, translator, &echo)
	if echo.Entry.Key != got.Entry.Key {
		t.Fatalf("echo key %q differs from broadcast key %q", echo.Entry.Key, got.Entry.Key)
	}

	if producer.count() != 1 {
		t.Fatalf("produced %d entries, want 1", producer.count())
	}
}

func TestTranslationWithoutRoomRejected(t *testing.T) {
	svc, h, producer, _ := newTestService(t)
	client := newTestClient(t, h, "alice")

	err := svc.HandleTranslation(context.Background(), client, &domain.TranslationMessage{Message: "hi"})
	if err != nil {
		t.Fatalf("HandleTranslation: %v", err)
	}

	var reply domain.ErrorMessage
	recvMessage(t, client, &reply)
	if reply.Code != domain.ErrCodeNotInRoom {
		t.Fatalf("error code = %q, want %q", reply.Code, domain.ErrCodeNotInRoom)
	}
	if producer.count() != 0 {
		t.Fatalf("produced %d entries, want 0", producer.count())
	}
}

func TestLoadHistoryRepliesToRequesterOnly(t *testing.T) {
	h := hub.NewHub(testWSConfig())
	go h.Run()

	hist := &fakeHistory{page: &history.Page{
		Entries: []domain.TranscriptEntry{
			{Key: "a", OffsetSeconds: 1, Message: "first"},
			{Key: "b", OffsetSeconds: 2, Message: "second"},
		},
		NextCursor: "1",
		HasMore:    true,
	}}
	svc := NewTLService(h, hist, &fakeProducer{}, newFakeRegistry())

	requester := newTestClient(t, h, "alice")
	other := newTestClient(t, h, "bob")
	ctx := context.Background()

	for _, c := range []*hub.Client{requester, other} {
		if err := svc.HandleSubscribe(ctx, c, &domain.SubscribeMessage{VideoID: "vid1", Lang: "en"}); err != nil {
			t.Fatalf("HandleSubscribe: %v", err)
		}
		<-c.Send
	}

	err := svc.HandleLoadHistory(ctx, requester, &domain.LoadHistoryMessage{
		Room: "vid1/en", Partial: 30,
	})
	if err != nil {
		t.Fatalf("HandleLoadHistory: %v", err)
	}

	var page domain.HistoryPageMessage
	recvMessage(t, requester, &page)
	if page.Room != "vid1/en" {
		t.Fatalf("page room = %q, want %q", page.Room, "vid1/en")
	}
	if len(page.Entries) != 2 || !page.HasMore || page.NextCursor != "1" {
		t.Fatalf("page = %+v, want 2 entries with more", page)
	}

	select {
	case data := <-other.Send:
		t.Fatalf("non-requesting client received %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDisconnectDeregistersEmptyRoom(t *testing.T) {
	svc, h, _, reg := newTestService(t)
	client := newTestClient(t, h, "alice")
	ctx := context.Background()

	if err := svc.HandleSubscribe(ctx, client, &domain.SubscribeMessage{VideoID: "vid1", Lang: "en"}); err != nil {
		t.Fatalf("HandleSubscribe: %v", err)
	}
	<-client.Send

	svc.HandleDisconnect(ctx, client)

	if got := h.RoomClientCount(domain.Room{VideoID: "vid1", Lang: "en"}); got != 0 {
		t.Fatalf("room has %d clients, want 0", got)
	}
	if got := reg.deregisterCount("vid1/en"); got != 1 {
		t.Fatalf("room deregistered %d times, want 1", got)
	}
}
