package ratelimit

import (
	"time"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
)

type ActionType string

const (
	ActionMessage  ActionType = "MESSAGE"
	ActionTemplate ActionType = "TEMPLATE"
	ActionCall     ActionType = "CALL"
)

// Window is one fixed quota bucket. Windows for a pair are evaluated in
// increasing granularity, so keep each slice ordered by duration.
type Window struct {
	Name     string
	Duration time.Duration
	Limit    int
}

var windowTable = map[model.ChannelType]map[ActionType][]Window{
	model.ChannelTypeWhatsApp: {
		ActionMessage: {
			{Name: "second", Duration: time.Second, Limit: 80},
			{Name: "minute", Duration: time.Minute, Limit: 1000},
			{Name: "hour", Duration: time.Hour, Limit: 10000},
		},
		ActionTemplate: {
			{Name: "second", Duration: time.Second, Limit: 80},
			{Name: "minute", Duration: time.Minute, Limit: 1000},
			{Name: "hour", Duration: time.Hour, Limit: 10000},
		},
	},
	model.ChannelTypeSMS: {
		ActionMessage: {
			{Name: "second", Duration: time.Second, Limit: 10},
			{Name: "minute", Duration: time.Minute, Limit: 600},
			{Name: "day", Duration: 24 * time.Hour, Limit: 10000},
		},
	},
	model.ChannelTypeEmail: {
		ActionMessage: {
			{Name: "minute", Duration: time.Minute, Limit: 100},
			{Name: "hour", Duration: time.Hour, Limit: 2000},
			{Name: "day", Duration: 24 * time.Hour, Limit: 20000},
		},
	},
	model.ChannelTypeVoice: {
		ActionCall: {
			{Name: "minute", Duration: time.Minute, Limit: 10},
			{Name: "hour", Duration: time.Hour, Limit: 100},
		},
	},
}

// WindowsFor returns the configured windows for a (channel, action) pair.
// Pairs with no configuration are unlimited.
func WindowsFor(channelType model.ChannelType, actionType ActionType) []Window {
	actions, ok := windowTable[channelType]
	if !ok {
		return nil
	}
	return actions[actionType]
}
