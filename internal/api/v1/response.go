package v1

type SendMessageResponse struct {
	Status         string `json:"status"`
	MessageEventID int64  `json:"message_event_id,omitempty"`
	Code           string `json:"code,omitempty"`
	Message        string `json:"message,omitempty"`
	RetryAfterSecs int64  `json:"retry_after_seconds,omitempty"`
}

type InboundWebhookResponse struct {
	MessageEventID int64 `json:"message_event_id"`
	ThreadID       int64 `json:"thread_id"`
	ContactID      int64 `json:"contact_id"`
	Duplicate      bool  `json:"duplicate"`
}

type StatusWebhookResponse struct {
	MessageEventID int64  `json:"message_event_id"`
	Status         string `json:"status"`
}

type EnrollResponse struct {
	EnrollmentID int64  `json:"enrollment_id"`
	Status       string `json:"status"`
	NextStepAt   string `json:"next_step_at,omitempty"`
}

type BalanceResponse struct {
	Balance    int64 `json:"balance"`
	Sufficient bool  `json:"sufficient"`
}
