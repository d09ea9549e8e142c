package domain

// WebSocket message types from client.
const (
	MsgTypeSubscribe   = "subscribe"
	MsgTypeUnsubscribe = "unsubscribe"
	MsgTypeTranslation = "translation"
	MsgTypeLoadHistory = "load_history"
	MsgTypePing        = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeSubscribed  = "subscribed"
	MsgTypeEntry       = "entry"
	MsgTypeHistoryPage = "history_page"
	MsgTypeError       = "error"
	MsgTypePong        = "pong"
)

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotInRoom     = "NOT_IN_ROOM"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// BaseMessage is the envelope shared by all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type SubscribeMessage struct {
	Type    string `json:"type"`
	VideoID string `json:"video_id"`
	Lang    string `json:"lang"`
}

type UnsubscribeMessage struct {
	Type string `json:"type"`
}

// TranslationMessage carries one timed line from a translator.
type TranslationMessage struct {
	Type          string  `json:"type"`
	Message       string  `json:"message"`
	OffsetSeconds float64 `json:"video_offset"`
}

// LoadHistoryMessage asks for up to Partial entries older than Before.
// Room identifies the subscription the request was issued under so a page
// that arrives after a room switch can be discarded.
type LoadHistoryMessage struct {
	Type    string `json:"type"`
	Room    string `json:"room"`
	Before  string `json:"before,omitempty"`
	Partial int    `json:"partial"`
}

// Server -> Client messages

type SubscribedMessage struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// EntryMessage delivers one live transcript entry to subscribers.
type EntryMessage struct {
	Type  string          `json:"type"`
	Room  string          `json:"room"`
	Entry TranscriptEntry `json:"entry"`
}

// HistoryPageMessage answers a LoadHistoryMessage. Entries are ordered by
// offset ascending within the page.
type HistoryPageMessage struct {
	Type       string            `json:"type"`
	Room       string            `json:"room"`
	Entries    []TranscriptEntry `json:"entries"`
	NextCursor string            `json:"next_cursor,omitempty"`
	HasMore    bool              `json:"has_more"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
