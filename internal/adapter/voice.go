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

// VoiceAdapter places outbound calls through a Twilio-style voice API.
// SendMessage initiates a call that reads the content as speech.
type VoiceAdapter struct {
	account model.ChannelAccount
	creds   VoiceCredentials
	cfg     Config
	client  httpclient.HTTPClient
}

func NewVoiceAdapter(account model.ChannelAccount, cfg Config, client httpclient.HTTPClient) (*VoiceAdapter, error) {
	var creds VoiceCredentials
	if err := decodeCredentials(account, &creds); err != nil {
		return nil, err
	}

	return &VoiceAdapter{account: account, creds: creds, cfg: cfg, client: client}, nil
}

func (a *VoiceAdapter) ChannelType() model.ChannelType { return model.ChannelTypeVoice }

type voiceCallRequest struct {
	From string `json:"From"`
	To   string `json:"To"`
	Say  string `json:"Say"`
}

type voiceCallResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

func (a *VoiceAdapter) SendMessage(ctx context.Context, msg OutboundMessage) (SendResult, error) {
	url := fmt.Sprintf("%s/Accounts/%s/Calls.json", a.cfg.VoiceBaseURL, a.creds.AccountSID)
	req := voiceCallRequest{From: a.creds.CallerNumber, To: msg.To, Say: msg.Content}

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

	var body voiceCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return SendResult{}, errors.New(ErrorCodeServerError)
	}

	return SendResult{ExternalID: body.SID}, nil
}

func (a *VoiceAdapter) SendTemplate(ctx context.Context, templateID string, variables map[string]string, to string) (SendResult, error) {
	script := variables["script"]
	if script == "" {
		for _, v := range variables {
			script = v
			break
		}
	}

	return a.SendMessage(ctx, OutboundMessage{To: to, ContentType: "speech", Content: script})
}

type voiceWebhook struct {
	CallSID      string `json:"CallSid"`
	From         string `json:"From"`
	CallStatus   string `json:"CallStatus"`
	CallDuration string `json:"CallDuration"`
	Timestamp    string `json:"Timestamp"`
}

// ParseInboundWebhook handles incoming call notifications.
func (a *VoiceAdapter) ParseInboundWebhook(payload []byte) (InboundMessage, error) {
	var hook voiceWebhook
	if err := json.Unmarshal(payload, &hook); err != nil || hook.CallSID == "" || hook.From == "" {
		return InboundMessage{}, errors.New(ErrorCodeBadPayload)
	}

	return InboundMessage{
		ExternalID:  hook.CallSID,
		From:        hook.From,
		ContentType: "call",
		SentAt:      time.Now().UTC(),
		Metadata:    map[string]string{"call_status": hook.CallStatus},
	}, nil
}

// ParseStatusWebhook maps call lifecycle events onto message statuses. The
// call duration in seconds is carried through the error-code field unused by
// voice so billing can reconcile per-minute cost.
func (a *VoiceAdapter) ParseStatusWebhook(payload []byte) (StatusUpdate, error) {
	var hook voiceWebhook
	if err := json.Unmarshal(payload, &hook); err != nil || hook.CallSID == "" || hook.CallStatus == "" {
		return StatusUpdate{}, errors.New(ErrorCodeBadPayload)
	}

	update := StatusUpdate{
		MessageID: hook.CallSID,
		Status:    mapCallStatus(hook.CallStatus),
		Timestamp: time.Now().UTC(),
	}
	if update.Status == model.MessageStatusFailed {
		update.ErrorCode = hook.CallStatus
		update.ErrorMessage = "call was not answered"
	}
	if hook.CallDuration != "" {
		if secs, err := strconv.Atoi(hook.CallDuration); err == nil {
			update.DurationSeconds = secs
		}
	}

	return update, nil
}

func (a *VoiceAdapter) ValidateCredentials(ctx context.Context) (CredentialCheck, error) {
	url := fmt.Sprintf("%s/Accounts/%s.json", a.cfg.VoiceBaseURL, a.creds.AccountSID)

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

func (a *VoiceAdapter) HealthStatus(ctx context.Context) Health {
	check, err := a.ValidateCredentials(ctx)
	now := time.Now()
	if err != nil {
		return Health{Healthy: false, Detail: err.Error(), CheckedAt: now}
	}
	return Health{Healthy: check.Valid, Detail: check.Detail, CheckedAt: now}
}

func (a *VoiceAdapter) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Basic " + basicAuth(a.creds.AccountSID, a.creds.AuthToken)}
}

func mapCallStatus(status string) model.MessageStatus {
	switch status {
	case "queued", "ringing", "in-progress", "initiated":
		return model.MessageStatusSent
	case "completed":
		return model.MessageStatusDelivered
	case "busy", "failed", "no-answer", "canceled":
		return model.MessageStatusFailed
	default:
		return model.MessageStatusSent
	}
}
