package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gocql/gocql"

	"github.com/RiceCakess/holoclips/internal/config"
	"github.com/RiceCakess/holoclips/internal/domain"
)

// CassandraMessageRepository stores entries in tl_entries_by_room,
// partitioned by (video_id, lang) and clustered by video_offset so a
// backward page is one ordered slice read.
type CassandraMessageRepository struct {
	session *gocql.Session
}

func NewCassandraMessageRepository(cfg config.CassandraConfig) (*CassandraMessageRepository, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.Timeout = cfg.Timeout

	switch cfg.Consistency {
	case "LOCAL_ONE":
		cluster.Consistency = gocql.LocalOne
	case "LOCAL_QUORUM":
		cluster.Consistency = gocql.LocalQuorum
	case "ONE":
		cluster.Consistency = gocql.One
	case "QUORUM":
		cluster.Consistency = gocql.Quorum
	default:
		cluster.Consistency = gocql.LocalOne
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create cassandra session: %w", err)
	}

	return &CassandraMessageRepository{session: session}, nil
}

func (r *CassandraMessageRepository) GetPage(
	ctx context.Context,
	room domain.Room,
	cursor string,
	limit int,
) ([]domain.TranscriptEntry, string, bool, error) {
	// Query limit + 1 to determine if there are more results
	queryLimit := limit + 1

	var query string
	var args []interface{}

	if cursor == "" {
		query = `SELECT entry_key, video_offset, duration_ms, message, parsed, author, channel_id,
						is_owner, is_verified, is_vtuber, is_moderator, created_at
				 FROM tl_entries_by_room
				 WHERE video_id = ? AND lang = ?
				 ORDER BY video_offset DESC
				 LIMIT ?`
		args = []interface{}{room.VideoID, room.Lang, queryLimit}
	} else {
		before, err := strconv.ParseFloat(cursor, 64)
		if err != nil {
			return nil, "", false, fmt.Errorf("malformed cursor %q: %w", cursor, err)
		}
		query = `SELECT entry_key, video_offset, duration_ms, message, parsed, author, channel_id,
						is_owner, is_verified, is_vtuber, is_moderator, created_at
				 FROM tl_entries_by_room
				 WHERE video_id = ? AND lang = ? AND video_offset < ?
				 ORDER BY video_offset DESC
				 LIMIT ?`
		args = []interface{}{room.VideoID, room.Lang, before, queryLimit}
	}

	iter := r.session.Query(query, args...).WithContext(ctx).Iter()

	var entries []domain.TranscriptEntry
	var entry domain.TranscriptEntry
	var durationMs float64
	var createdAt time.Time

	for iter.Scan(
		&entry.Key,
		&entry.OffsetSeconds,
		&durationMs,
		&entry.Message,
		&entry.Parsed,
		&entry.Name,
		&entry.ChannelID,
		&entry.IsOwner,
		&entry.IsVerified,
		&entry.IsVTuber,
		&entry.IsModerator,
		&createdAt,
	) {
		if durationMs > 0 {
			entry.DurationMillis = domain.Millis(durationMs)
		}
		entry.Timestamp = createdAt.UnixMilli()
		entries = append(entries, entry)
		entry = domain.TranscriptEntry{}
		durationMs = 0
	}

	if err := iter.Close(); err != nil {
		return nil, "", false, fmt.Errorf("failed to iterate entries: %w", err)
	}

	// Determine if there are more results
	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	// The scan runs newest-first; pages are served offset-ascending.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	// Next cursor is the oldest offset in this page
	var nextCursor string
	if len(entries) > 0 {
		nextCursor = strconv.FormatFloat(entries[0].OffsetSeconds, 'f', -1, 64)
	}

	return entries, nextCursor, hasMore, nil
}

func (r *CassandraMessageRepository) SaveEntry(ctx context.Context, room domain.Room, entry domain.TranscriptEntry) error {
	query := `INSERT INTO tl_entries_by_room
			  (video_id, lang, video_offset, entry_key, duration_ms, message, parsed, author,
			   channel_id, is_owner, is_verified, is_vtuber, is_moderator, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	err := r.session.Query(query,
		room.VideoID,
		room.Lang,
		entry.OffsetSeconds,
		entry.Key,
		entry.DurationOr(0),
		entry.Message,
		entry.Parsed,
		entry.Name,
		entry.ChannelID,
		entry.IsOwner,
		entry.IsVerified,
		entry.IsVTuber,
		entry.IsModerator,
		time.UnixMilli(entry.Timestamp),
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return nil
}

func (r *CassandraMessageRepository) Close() error {
	r.session.Close()
	return nil
}
