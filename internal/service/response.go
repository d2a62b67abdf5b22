package service

import (
	"time"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
)

// SendMessageResult is returned for every send attempt. MessageEventID is
// populated whenever an event was persisted, including failed sends, so the
// caller always has a durable record to inspect. ErrorCode carries expected
// outcomes (RATE_LIMITED, OPTED_OUT, ...) that are results, not faults.
type SendMessageResult struct {
	Success        bool
	MessageEventID int64
	Status         model.MessageStatus
	ErrorCode      string
	RetryAfter     time.Duration
}

type InboundResult struct {
	MessageEventID int64
	ThreadID       int64
	ContactID      int64
	Duplicate      bool
}

type StatusResult struct {
	MessageEventID int64
	Status         model.MessageStatus
}

type ThreadMessagesResponse struct {
	Messages []ThreadMessage `json:"messages"`
	Total    int             `json:"total"`
}

type ThreadMessage struct {
	MessageID   int64  `json:"message_id"`
	Direction   string `json:"direction"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}
