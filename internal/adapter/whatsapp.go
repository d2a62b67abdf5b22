package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/httpclient"
)

// WhatsAppAdapter talks to a WhatsApp Business Cloud style API.
type WhatsAppAdapter struct {
	account model.ChannelAccount
	creds   WhatsAppCredentials
	cfg     Config
	client  httpclient.HTTPClient
}

func NewWhatsAppAdapter(account model.ChannelAccount, cfg Config, client httpclient.HTTPClient) (*WhatsAppAdapter, error) {
	var creds WhatsAppCredentials
	if err := decodeCredentials(account, &creds); err != nil {
		return nil, err
	}

	return &WhatsAppAdapter{account: account, creds: creds, cfg: cfg, client: client}, nil
}

func (a *WhatsAppAdapter) ChannelType() model.ChannelType { return model.ChannelTypeWhatsApp }

type waSendRequest struct {
	MessagingProduct string         `json:"messaging_product"`
	To               string         `json:"to"`
	Type             string         `json:"type"`
	Text             *waText        `json:"text,omitempty"`
	Template         *waTemplateRef `json:"template,omitempty"`
}

type waText struct {
	Body string `json:"body"`
}

type waTemplateRef struct {
	Name       string        `json:"name"`
	Components []waComponent `json:"components,omitempty"`
}

type waComponent struct {
	Type       string        `json:"type"`
	Parameters []waParameter `json:"parameters"`
}

type waParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type waSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (a *WhatsAppAdapter) SendMessage(ctx context.Context, msg OutboundMessage) (SendResult, error) {
	req := waSendRequest{
		MessagingProduct: "whatsapp",
		To:               msg.To,
		Type:             "text",
		Text:             &waText{Body: msg.Content},
	}

	return a.send(ctx, req)
}

func (a *WhatsAppAdapter) SendTemplate(ctx context.Context, templateID string, variables map[string]string, to string) (SendResult, error) {
	params := make([]waParameter, 0, len(variables))
	for _, v := range variables {
		params = append(params, waParameter{Type: "text", Text: v})
	}

	req := waSendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template:         &waTemplateRef{Name: templateID},
	}
	if len(params) > 0 {
		req.Template.Components = []waComponent{{Type: "body", Parameters: params}}
	}

	return a.send(ctx, req)
}

func (a *WhatsAppAdapter) send(ctx context.Context, req waSendRequest) (SendResult, error) {
	url := fmt.Sprintf("%s/%s/messages", a.cfg.WhatsAppBaseURL, a.creds.PhoneNumberID)
	headers := map[string]string{"Authorization": "Bearer " + a.creds.AccessToken}

	resp, err := a.client.PostJSON(ctx, url, req, headers)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return SendResult{}, errors.New(ErrorCodeTimeout)
		}
		return SendResult{}, errors.New(ErrorCodeNetworkError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SendResult{}, errors.New(statusToErrorCode(resp.StatusCode))
	}

	var body waSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || len(body.Messages) == 0 {
		return SendResult{}, errors.New(ErrorCodeServerError)
	}

	return SendResult{ExternalID: body.Messages[0].ID}, nil
}

// waWebhook mirrors the nested entry/changes structure of the Cloud API.
type waWebhook struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					ID        string `json:"id"`
					From      string `json:"from"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
				Statuses []struct {
					ID        string `json:"id"`
					Status    string `json:"status"`
					Timestamp string `json:"timestamp"`
					Errors    []struct {
						Code  int    `json:"code"`
						Title string `json:"title"`
					} `json:"errors"`
				} `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

func (a *WhatsAppAdapter) ParseInboundWebhook(payload []byte) (InboundMessage, error) {
	var hook waWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return InboundMessage{}, errors.New(ErrorCodeBadPayload)
	}

	for _, entry := range hook.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				return InboundMessage{
					ExternalID:  msg.ID,
					From:        msg.From,
					Content:     msg.Text.Body,
					ContentType: msg.Type,
					SentAt:      parseUnixSeconds(msg.Timestamp),
					Metadata:    map[string]string{"type": msg.Type},
				}, nil
			}
		}
	}

	return InboundMessage{}, errors.New(ErrorCodeBadPayload)
}

func (a *WhatsAppAdapter) ParseStatusWebhook(payload []byte) (StatusUpdate, error) {
	var hook waWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return StatusUpdate{}, errors.New(ErrorCodeBadPayload)
	}

	for _, entry := range hook.Entry {
		for _, change := range entry.Changes {
			for _, st := range change.Value.Statuses {
				update := StatusUpdate{
					MessageID: st.ID,
					Status:    mapWhatsAppStatus(st.Status),
					Timestamp: parseUnixSeconds(st.Timestamp),
				}
				if len(st.Errors) > 0 {
					update.ErrorCode = strconv.Itoa(st.Errors[0].Code)
					update.ErrorMessage = st.Errors[0].Title
				}
				return update, nil
			}
		}
	}

	return StatusUpdate{}, errors.New(ErrorCodeBadPayload)
}

func (a *WhatsAppAdapter) ValidateCredentials(ctx context.Context) (CredentialCheck, error) {
	url := fmt.Sprintf("%s/%s", a.cfg.WhatsAppBaseURL, a.creds.PhoneNumberID)
	headers := map[string]string{"Authorization": "Bearer " + a.creds.AccessToken}

	resp, err := a.client.Get(ctx, url, headers)
	if err != nil {
		return CredentialCheck{}, errors.New(ErrorCodeNetworkError)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return CredentialCheck{Valid: false, Detail: "access token rejected"}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return CredentialCheck{}, errors.New(statusToErrorCode(resp.StatusCode))
	}

	return CredentialCheck{Valid: true}, nil
}

func (a *WhatsAppAdapter) HealthStatus(ctx context.Context) Health {
	check, err := a.ValidateCredentials(ctx)
	now := time.Now()
	if err != nil {
		return Health{Healthy: false, Detail: err.Error(), CheckedAt: now}
	}
	return Health{Healthy: check.Valid, Detail: check.Detail, CheckedAt: now}
}

func mapWhatsAppStatus(status string) model.MessageStatus {
	switch status {
	case "sent":
		return model.MessageStatusSent
	case "delivered":
		return model.MessageStatusDelivered
	case "read":
		return model.MessageStatusRead
	case "failed":
		return model.MessageStatusFailed
	default:
		return model.MessageStatusSent
	}
}

func parseUnixSeconds(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.Unix(secs, 0).UTC()
}

func statusToErrorCode(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorCodeUnauthorized
	case status >= 400 && status < 500:
		return ErrorCodeInvalidRecipient
	default:
		return ErrorCodeServerError
	}
}
