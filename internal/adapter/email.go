package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/httpclient"
)

// EmailAdapter talks to a SendGrid-style transactional email API.
type EmailAdapter struct {
	account model.ChannelAccount
	creds   EmailCredentials
	cfg     Config
	client  httpclient.HTTPClient
}

func NewEmailAdapter(account model.ChannelAccount, cfg Config, client httpclient.HTTPClient) (*EmailAdapter, error) {
	var creds EmailCredentials
	if err := decodeCredentials(account, &creds); err != nil {
		return nil, err
	}

	return &EmailAdapter{account: account, creds: creds, cfg: cfg, client: client}, nil
}

func (a *EmailAdapter) ChannelType() model.ChannelType { return model.ChannelTypeEmail }

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type emailSendRequest struct {
	Personalizations []emailPersonalization `json:"personalizations"`
	From             emailAddress           `json:"from"`
	Subject          string                 `json:"subject,omitempty"`
	Content          []emailContent         `json:"content,omitempty"`
	TemplateID       string                 `json:"template_id,omitempty"`
}

type emailPersonalization struct {
	To           []emailAddress    `json:"to"`
	TemplateData map[string]string `json:"dynamic_template_data,omitempty"`
}

type emailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type emailSendResponse struct {
	MessageID string `json:"message_id"`
}

func (a *EmailAdapter) SendMessage(ctx context.Context, msg OutboundMessage) (SendResult, error) {
	contentType := "text/plain"
	if msg.ContentType == "html" {
		contentType = "text/html"
	}

	req := emailSendRequest{
		Personalizations: []emailPersonalization{{To: []emailAddress{{Email: msg.To}}}},
		From:             emailAddress{Email: a.creds.FromAddress, Name: a.creds.FromName},
		Subject:          msg.Subject,
		Content:          []emailContent{{Type: contentType, Value: msg.Content}},
	}

	return a.send(ctx, req)
}

func (a *EmailAdapter) SendTemplate(ctx context.Context, templateID string, variables map[string]string, to string) (SendResult, error) {
	req := emailSendRequest{
		Personalizations: []emailPersonalization{{To: []emailAddress{{Email: to}}, TemplateData: variables}},
		From:             emailAddress{Email: a.creds.FromAddress, Name: a.creds.FromName},
		TemplateID:       templateID,
	}

	return a.send(ctx, req)
}

func (a *EmailAdapter) send(ctx context.Context, req emailSendRequest) (SendResult, error) {
	url := a.cfg.EmailBaseURL + "/mail/send"
	headers := map[string]string{"Authorization": "Bearer " + a.creds.APIKey}

	resp, err := a.client.PostJSON(ctx, url, req, headers)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return SendResult{}, errors.New(ErrorCodeTimeout)
		}
		return SendResult{}, errors.New(ErrorCodeNetworkError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return SendResult{}, errors.New(statusToErrorCode(resp.StatusCode))
	}

	externalID := resp.Header.Get("X-Message-Id")
	if externalID == "" {
		var body emailSendResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			externalID = body.MessageID
		}
	}

	return SendResult{ExternalID: externalID}, nil
}

// emailEvent is one element of the vendor's event webhook batch. Inbound
// replies arrive through the same endpoint with event type "inbound".
type emailEvent struct {
	MessageID string `json:"sg_message_id"`
	Event     string `json:"event"`
	Email     string `json:"email"`
	Timestamp int64  `json:"timestamp"`
	Subject   string `json:"subject"`
	Text      string `json:"text"`
	Reason    string `json:"reason"`
}

func (a *EmailAdapter) ParseInboundWebhook(payload []byte) (InboundMessage, error) {
	var events []emailEvent
	if err := json.Unmarshal(payload, &events); err != nil || len(events) == 0 {
		return InboundMessage{}, errors.New(ErrorCodeBadPayload)
	}

	ev := events[0]
	if ev.Email == "" {
		return InboundMessage{}, errors.New(ErrorCodeBadPayload)
	}

	return InboundMessage{
		ExternalID:  ev.MessageID,
		From:        ev.Email,
		Content:     ev.Text,
		ContentType: "text",
		SentAt:      time.Unix(ev.Timestamp, 0).UTC(),
		Metadata:    map[string]string{"subject": ev.Subject},
	}, nil
}

func (a *EmailAdapter) ParseStatusWebhook(payload []byte) (StatusUpdate, error) {
	var events []emailEvent
	if err := json.Unmarshal(payload, &events); err != nil || len(events) == 0 {
		return StatusUpdate{}, errors.New(ErrorCodeBadPayload)
	}

	ev := events[0]
	if ev.MessageID == "" {
		return StatusUpdate{}, errors.New(ErrorCodeBadPayload)
	}

	update := StatusUpdate{
		MessageID: ev.MessageID,
		Status:    mapEmailEvent(ev.Event),
		Timestamp: time.Unix(ev.Timestamp, 0).UTC(),
	}
	if update.Status == model.MessageStatusFailed {
		update.ErrorCode = ev.Event
		update.ErrorMessage = ev.Reason
	}

	return update, nil
}

func (a *EmailAdapter) ValidateCredentials(ctx context.Context) (CredentialCheck, error) {
	url := a.cfg.EmailBaseURL + "/user/credits"
	headers := map[string]string{"Authorization": "Bearer " + a.creds.APIKey}

	resp, err := a.client.Get(ctx, url, headers)
	if err != nil {
		return CredentialCheck{}, errors.New(ErrorCodeNetworkError)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return CredentialCheck{Valid: false, Detail: "API key rejected"}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return CredentialCheck{}, errors.New(statusToErrorCode(resp.StatusCode))
	}

	return CredentialCheck{Valid: true}, nil
}

func (a *EmailAdapter) HealthStatus(ctx context.Context) Health {
	check, err := a.ValidateCredentials(ctx)
	now := time.Now()
	if err != nil {
		return Health{Healthy: false, Detail: err.Error(), CheckedAt: now}
	}
	return Health{Healthy: check.Valid, Detail: check.Detail, CheckedAt: now}
}

func mapEmailEvent(event string) model.MessageStatus {
	switch event {
	case "processed", "deferred":
		return model.MessageStatusSent
	case "delivered":
		return model.MessageStatusDelivered
	case "open", "click":
		return model.MessageStatusRead
	case "bounce", "dropped", "spamreport":
		return model.MessageStatusFailed
	default:
		return model.MessageStatusSent
	}
}
