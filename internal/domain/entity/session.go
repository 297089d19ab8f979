package entity

import "time"

// WeeklySession is a recorded Opensox session available to paid users.
type WeeklySession struct {
	ID          string
	Title       string
	Description string
	YoutubeURL  string
	SessionDate time.Time
	CreatedAt   time.Time
	Topics      []SessionTopic
}

// SessionTopic is a chapter marker inside a session recording.
type SessionTopic struct {
	ID        string
	Timestamp string
	Topic     string
	Order     int
}
