package log

const (
	// Room identity
	FieldVideoID = "video_id"
	FieldLang    = "lang"
	FieldRoom    = "room"

	// Connections
	FieldClientID = "client_id"

	// Transcript
	FieldEntryKey = "entry_key"
	FieldOffset   = "offset_sec"
	FieldAuthor   = "author"

	// Service
	FieldService = "service"
)
