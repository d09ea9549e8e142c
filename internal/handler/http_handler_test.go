package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/RiceCakess/holoclips/internal/domain"
	"github.com/RiceCakess/holoclips/internal/history"
	"github.com/RiceCakess/holoclips/pkg/response"
)

type fakeHistory struct {
	page     *history.Page
	lastRoom domain.Room
	lastCur  string
	lastLim  int
}

func (f *fakeHistory) GetPage(_ context.Context, room domain.Room, cursor string, limit int) (*history.Page, error) {
	f.lastRoom = room
	f.lastCur = cursor
	f.lastLim = limit
	return f.page, nil
}

func newTestRouter(hist history.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewHTTPHandler(hist).RegisterRoutes(engine)
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, path string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	engine.ServeHTTP(w, req)

	var body response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return w, body
}

func TestGetMessages(t *testing.T) {
	hist := &fakeHistory{page: &history.Page{
		Entries: []domain.TranscriptEntry{
			{Key: "a", OffsetSeconds: 1, Message: "first"},
		},
		NextCursor: "1",
		HasMore:    true,
	}}
	engine := newTestRouter(hist)

	w, body := doRequest(t, engine, "/api/v1/videos/vid1/langs/en/messages?cursor=5&limit=20")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	if !body.Success {
		t.Fatalf("success=false, body=%+v", body)
	}

	want := domain.Room{VideoID: "vid1", Lang: "en"}
	if hist.lastRoom != want {
		t.Fatalf("room=%+v, want %+v", hist.lastRoom, want)
	}
	if hist.lastCur != "5" || hist.lastLim != 20 {
		t.Fatalf("cursor=%q limit=%d, want 5/20", hist.lastCur, hist.lastLim)
	}
}

func TestGetMessagesRejectsBadLimit(t *testing.T) {
	engine := newTestRouter(&fakeHistory{page: &history.Page{}})

	w, body := doRequest(t, engine, "/api/v1/videos/vid1/langs/en/messages?limit=zero")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
	if body.Success || body.Error == nil {
		t.Fatalf("body=%+v, want error envelope", body)
	}
}

func TestUnknownRouteReturnsNotFoundEnvelope(t *testing.T) {
	engine := newTestRouter(&fakeHistory{page: &history.Page{}})

	w, body := doRequest(t, engine, "/api/v1/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", w.Code)
	}
	if body.Success || body.Error == nil || body.Error.Code != "NOT_FOUND" {
		t.Fatalf("body=%+v, want NOT_FOUND envelope", body)
	}
}
