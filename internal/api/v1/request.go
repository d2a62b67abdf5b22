package v1

type SendMessageRequest struct {
	TenantID         string `json:"tenant_id"`
	WorkspaceID      string `json:"workspace_id"`
	ChannelAccountID int64  `json:"channel_account_id"`
	To               string `json:"to"`
	Subject          string `json:"subject"`
	ContentType      string `json:"content_type"`
	Content          string `json:"content"`
	EventType        string `json:"event_type"`
}

type SendTemplateRequest struct {
	TenantID         string            `json:"tenant_id"`
	WorkspaceID      string            `json:"workspace_id"`
	ChannelAccountID int64             `json:"channel_account_id"`
	To               string            `json:"to"`
	TemplateID       string            `json:"template_id"`
	Variables        map[string]string `json:"variables"`
	EventType        string            `json:"event_type"`
}

type ConsentRequest struct {
	TenantID    string `json:"tenant_id"`
	ChannelType string `json:"channel_type"`
	Identifier  string `json:"identifier"`
}

type EnrollRequest struct {
	TenantID   string `json:"tenant_id"`
	SequenceID int64  `json:"sequence_id"`
	ContactID  int64  `json:"contact_id"`
}
