package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/httpclient"
)

func whatsAppAccount(t *testing.T) model.ChannelAccount {
	t.Helper()
	creds, err := json.Marshal(WhatsAppCredentials{PhoneNumberID: "1050001", AccessToken: "token-1"})
	require.NoError(t, err)
	return model.ChannelAccount{ID: 1, ChannelType: model.ChannelTypeWhatsApp, Credentials: string(creds)}
}

func TestWhatsAppAdapter_SendMessage(t *testing.T) {
	var captured waSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(waSendResponse{Messages: []struct {
			ID string `json:"id"`
		}{{ID: "wamid.X1"}}})
	}))
	defer srv.Close()

	a, err := NewWhatsAppAdapter(whatsAppAccount(t), Config{WhatsAppBaseURL: srv.URL}, httpclient.NewHTTPClient(5*time.Second))
	require.NoError(t, err)

	result, err := a.SendMessage(context.Background(), OutboundMessage{To: "+15550001", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.X1", result.ExternalID)
	assert.Equal(t, "whatsapp", captured.MessagingProduct)
	assert.Equal(t, "hello", captured.Text.Body)
}

func TestWhatsAppAdapter_SendMessageVendorFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a, err := NewWhatsAppAdapter(whatsAppAccount(t), Config{WhatsAppBaseURL: srv.URL}, httpclient.NewHTTPClient(5*time.Second))
	require.NoError(t, err)

	_, err = a.SendMessage(context.Background(), OutboundMessage{To: "+15550001", Content: "hello"})
	require.Error(t, err)
	assert.Equal(t, ErrorCodeServerError, err.Error())
}

func TestWhatsAppAdapter_ParseInboundWebhook(t *testing.T) {
	payload := []byte(`{"entry":[{"changes":[{"value":{"messages":[
		{"id":"wamid.IN1","from":"15550002","timestamp":"1756500000","type":"text","text":{"body":"STOP"}}
	]}}]}]}`)

	a, err := NewWhatsAppAdapter(whatsAppAccount(t), Config{}, nil)
	require.NoError(t, err)

	msg, err := a.ParseInboundWebhook(payload)
	require.NoError(t, err)
	assert.Equal(t, "wamid.IN1", msg.ExternalID)
	assert.Equal(t, "15550002", msg.From)
	assert.Equal(t, "STOP", msg.Content)
	assert.Equal(t, int64(1756500000), msg.SentAt.Unix())
}

func TestWhatsAppAdapter_ParseStatusWebhookWithError(t *testing.T) {
	payload := []byte(`{"entry":[{"changes":[{"value":{"statuses":[
		{"id":"wamid.OUT1","status":"failed","timestamp":"1756500060","errors":[{"code":131026,"title":"recipient unreachable"}]}
	]}}]}]}`)

	a, err := NewWhatsAppAdapter(whatsAppAccount(t), Config{}, nil)
	require.NoError(t, err)

	update, err := a.ParseStatusWebhook(payload)
	require.NoError(t, err)
	assert.Equal(t, "wamid.OUT1", update.MessageID)
	assert.Equal(t, model.MessageStatusFailed, update.Status)
	assert.Equal(t, "131026", update.ErrorCode)
	assert.Equal(t, "recipient unreachable", update.ErrorMessage)
}

func TestWhatsAppAdapter_ParseInboundWebhookBadPayload(t *testing.T) {
	a, err := NewWhatsAppAdapter(whatsAppAccount(t), Config{}, nil)
	require.NoError(t, err)

	_, err = a.ParseInboundWebhook([]byte(`{"entry":[]}`))
	require.Error(t, err)
	assert.Equal(t, ErrorCodeBadPayload, err.Error())
}

func TestSMSAdapter_ParseStatusWebhook(t *testing.T) {
	creds, err := json.Marshal(SMSCredentials{AccountSID: "AC1", AuthToken: "secret", SenderID: "NEXORA"})
	require.NoError(t, err)
	account := model.ChannelAccount{ID: 2, ChannelType: model.ChannelTypeSMS, Credentials: string(creds)}

	a, err := NewSMSAdapter(account, Config{}, nil)
	require.NoError(t, err)

	update, err := a.ParseStatusWebhook([]byte(`{"MessageSid":"SM100","MessageStatus":"undelivered","ErrorCode":"30003"}`))
	require.NoError(t, err)
	assert.Equal(t, "SM100", update.MessageID)
	assert.Equal(t, model.MessageStatusFailed, update.Status)
	assert.Equal(t, "30003", update.ErrorCode)
}

func TestEmailAdapter_ParseStatusWebhookOpenMapsToRead(t *testing.T) {
	creds, err := json.Marshal(EmailCredentials{APIKey: "SG.key", FromAddress: "noreply@nexora.io"})
	require.NoError(t, err)
	account := model.ChannelAccount{ID: 3, ChannelType: model.ChannelTypeEmail, Credentials: string(creds)}

	a, err := NewEmailAdapter(account, Config{}, nil)
	require.NoError(t, err)

	update, err := a.ParseStatusWebhook([]byte(`[{"sg_message_id":"EM1","event":"open","email":"lead@corp.io","timestamp":1756500120}]`))
	require.NoError(t, err)
	assert.Equal(t, "EM1", update.MessageID)
	assert.Equal(t, model.MessageStatusRead, update.Status)
}

func TestVoiceAdapter_ParseStatusWebhookCarriesDuration(t *testing.T) {
	creds, err := json.Marshal(VoiceCredentials{AccountSID: "AC2", AuthToken: "secret", CallerNumber: "+15550100"})
	require.NoError(t, err)
	account := model.ChannelAccount{ID: 4, ChannelType: model.ChannelTypeVoice, Credentials: string(creds)}

	a, err := NewVoiceAdapter(account, Config{}, nil)
	require.NoError(t, err)

	update, err := a.ParseStatusWebhook([]byte(`{"CallSid":"CA7","CallStatus":"completed","CallDuration":"95"}`))
	require.NoError(t, err)
	assert.Equal(t, model.MessageStatusDelivered, update.Status)
	assert.Equal(t, 95, update.DurationSeconds)
}

func TestNewAdapterRejectsMalformedCredentials(t *testing.T) {
	account := model.ChannelAccount{ID: 5, ChannelType: model.ChannelTypeWhatsApp, Credentials: "{not json"}

	_, err := NewWhatsAppAdapter(account, Config{}, nil)
	require.Error(t, err)
}
