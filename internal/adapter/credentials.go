package adapter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
)

// Per-channel credential structs. The account stores one opaque JSON blob;
// these are the known shapes it decodes into.

type WhatsAppCredentials struct {
	PhoneNumberID string `json:"phoneNumberId"`
	AccessToken   string `json:"accessToken"`
}

type SMSCredentials struct {
	AccountSID string `json:"accountSid"`
	AuthToken  string `json:"authToken"`
	SenderID   string `json:"senderId"`
}

type EmailCredentials struct {
	APIKey      string `json:"apiKey"`
	FromAddress string `json:"fromAddress"`
	FromName    string `json:"fromName"`
}

type VoiceCredentials struct {
	AccountSID   string `json:"accountSid"`
	AuthToken    string `json:"authToken"`
	CallerNumber string `json:"callerNumber"`
}

func decodeCredentials(account model.ChannelAccount, out interface{}) error {
	if err := json.Unmarshal([]byte(account.Credentials), out); err != nil {
		return fmt.Errorf("invalid %s credentials for account %d: %w", account.ChannelType, account.ID, err)
	}
	return nil
}

func basicAuth(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
}
