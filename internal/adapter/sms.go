package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/httpclient"
)

// SMSAdapter talks to a Twilio-style messaging API.
type SMSAdapter struct {
	account model.ChannelAccount
	creds   SMSCredentials
	cfg     Config
	client  httpclient.HTTPClient
}

func NewSMSAdapter(account model.ChannelAccount, cfg Config, client httpclient.HTTPClient) (*SMSAdapter, error) {
	var creds SMSCredentials
	if err := decodeCredentials(account, &creds); err != nil {
		return nil, err
	}

	return &SMSAdapter{account: account, creds: creds, cfg: cfg, client: client}, nil
}

func (a *SMSAdapter) ChannelType() model.ChannelType { return model.ChannelTypeSMS }

type smsSendRequest struct {
	From string `json:"From"`
	To   string `json:"To"`
	Body string `json:"Body"`
}

type smsSendResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (a *SMSAdapter) SendMessage(ctx context.Context, msg OutboundMessage) (SendResult, error) {
	url := fmt.Sprintf("%s/Accounts/%s/Messages.json", a.cfg.SMSBaseURL, a.creds.AccountSID)
	req := smsSendRequest{From: a.creds.SenderID, To: msg.To, Body: msg.Content}

	resp, err := a.client.PostJSON(ctx, url, req, a.authHeaders())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return SendResult{}, errors.New(ErrorCodeTimeout)
		}
		return SendResult{}, errors.New(ErrorCodeNetworkError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return SendResult{}, errors.New(statusToErrorCode(resp.StatusCode))
	}

	var body smsSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return SendResult{}, errors.New(ErrorCodeServerError)
	}
	if body.ErrorCode != nil {
		return SendResult{}, errors.New(ErrorCodeInvalidRecipient)
	}

	return SendResult{ExternalID: body.SID}, nil
}

// SendTemplate renders the template variables into a flat body. SMS vendors
// have no server-side template registry, so the template ID is ignored.
func (a *SMSAdapter) SendTemplate(ctx context.Context, templateID string, variables map[string]string, to string) (SendResult, error) {
	body := variables["body"]
	if body == "" {
		for _, v := range variables {
			body = v
			break
		}
	}

	return a.SendMessage(ctx, OutboundMessage{To: to, ContentType: "text", Content: body})
}

type smsWebhook struct {
	MessageSID string `json:"MessageSid"`
	From       string `json:"From"`
	Body       string `json:"Body"`
	Status     string `json:"MessageStatus"`
	ErrorCode  string `json:"ErrorCode"`
}

func (a *SMSAdapter) ParseInboundWebhook(payload []byte) (InboundMessage, error) {
	var hook smsWebhook
	if err := json.Unmarshal(payload, &hook); err != nil || hook.MessageSID == "" || hook.From == "" {
		return InboundMessage{}, errors.New(ErrorCodeBadPayload)
	}

	return InboundMessage{
		ExternalID:  hook.MessageSID,
		From:        hook.From,
		Content:     hook.Body,
		ContentType: "text",
		SentAt:      time.Now().UTC(),
	}, nil
}

func (a *SMSAdapter) ParseStatusWebhook(payload []byte) (StatusUpdate, error) {
	var hook smsWebhook
	if err := json.Unmarshal(payload, &hook); err != nil || hook.MessageSID == "" || hook.Status == "" {
		return StatusUpdate{}, errors.New(ErrorCodeBadPayload)
	}

	update := StatusUpdate{
		MessageID: hook.MessageSID,
		Status:    mapSMSStatus(hook.Status),
		Timestamp: time.Now().UTC(),
	}
	if update.Status == model.MessageStatusFailed {
		update.ErrorCode = hook.ErrorCode
		update.ErrorMessage = "carrier rejected message"
	}

	return update, nil
}

func (a *SMSAdapter) ValidateCredentials(ctx context.Context) (CredentialCheck, error) {
	url := fmt.Sprintf("%s/Accounts/%s.json", a.cfg.SMSBaseURL, a.creds.AccountSID)

	resp, err := a.client.Get(ctx, url, a.authHeaders())
	if err != nil {
		return CredentialCheck{}, errors.New(ErrorCodeNetworkError)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return CredentialCheck{Valid: false, Detail: "account SID or auth token rejected"}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return CredentialCheck{}, errors.New(statusToErrorCode(resp.StatusCode))
	}

	return CredentialCheck{Valid: true}, nil
}

func (a *SMSAdapter) HealthStatus(ctx context.Context) Health {
	check, err := a.ValidateCredentials(ctx)
	now := time.Now()
	if err != nil {
		return Health{Healthy: false, Detail: err.Error(), CheckedAt: now}
	}
	return Health{Healthy: check.Valid, Detail: check.Detail, CheckedAt: now}
}

func (a *SMSAdapter) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Basic " + basicAuth(a.creds.AccountSID, a.creds.AuthToken)}
}

func mapSMSStatus(status string) model.MessageStatus {
	switch status {
	case "queued", "sending", "sent":
		return model.MessageStatusSent
	case "delivered":
		return model.MessageStatusDelivered
	case "failed", "undelivered":
		return model.MessageStatusFailed
	default:
		return model.MessageStatusSent
	}
}
