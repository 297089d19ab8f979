package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"opensox-api/internal/domain/entity"
	"opensox-api/internal/repository"
)

type SessionRepo struct{ db DBTX }

func NewSessionRepo(db DBTX) repository.SessionRepository {
	return &SessionRepo{db: db}
}

// ListWithTopics loads sessions and topics in one LEFT JOIN and groups the
// rows in Go.
func (repo *SessionRepo) ListWithTopics(ctx context.Context) ([]*entity.WeeklySession, error) {
	const query = `
SELECT s.id, s.title, s.description, s.youtube_url, s.session_date, s.created_at,
       t.id, t.timestamp, t.topic, t."order"
FROM weekly_sessions s
LEFT JOIN session_topics t ON t.session_id = s.id
ORDER BY s.session_date DESC, s.id ASC, t."order" ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListWithTopics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := make([]*entity.WeeklySession, 0, 16)
	byID := make(map[string]*entity.WeeklySession)
	for rows.Next() {
		var (
			s         entity.WeeklySession
			topicID   sql.NullString
			timestamp sql.NullString
			topic     sql.NullString
			order     sql.NullInt64
		)
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Description, &s.YoutubeURL, &s.SessionDate, &s.CreatedAt,
			&topicID, &timestamp, &topic, &order,
		); err != nil {
			return nil, fmt.Errorf("ListWithTopics: %w", err)
		}

		cur, ok := byID[s.ID]
		if !ok {
			s.Topics = []entity.SessionTopic{}
			cur = &s
			byID[s.ID] = cur
			sessions = append(sessions, cur)
		}
		if topicID.Valid {
			cur.Topics = append(cur.Topics, entity.SessionTopic{
				ID:        topicID.String,
				Timestamp: timestamp.String,
				Topic:     topic.String,
				Order:     int(order.Int64),
			})
		}
	}
	return sessions, rows.Err()
}
