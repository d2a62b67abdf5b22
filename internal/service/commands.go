package service

type SendMessageCommand struct {
	TenantID         string
	WorkspaceID      string
	ChannelAccountID int64
	To               string
	Subject          string
	ContentType      string
	Content          string
	EventType        string
}

type SendTemplateCommand struct {
	TenantID         string
	WorkspaceID      string
	ChannelAccountID int64
	To               string
	TemplateID       string
	Variables        map[string]string
	EventType        string
}

// WebhookCommand carries a raw vendor payload; parsing belongs to the adapter.
type WebhookCommand struct {
	ChannelAccountID int64
	Payload          []byte
}

type GetThreadMessagesQuery struct {
	ThreadID int64
	Limit    int
	Offset   int
}
