package usage

import (
	"strings"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
)

// Cost per unit in minor currency units, keyed by channel and the event-type
// suffix (the part after "WHATSAPP_", "SMS_", ...). Voice entries are priced
// per whole minute.
var costTable = map[model.ChannelType]map[string]int64{
	model.ChannelTypeWhatsApp: {
		"MARKETING": 100,
		"UTILITY":   50,
		"SERVICE":   30,
	},
	model.ChannelTypeSMS: {
		"STANDARD": 60,
		"OTP":      75,
	},
	model.ChannelTypeEmail: {
		"STANDARD":      2,
		"TRANSACTIONAL": 5,
	},
	model.ChannelTypeVoice: {
		"CALL": 120,
	},
}

// EstimateCost computes the billable cost for one usage event. Voice rounds
// the duration up to whole minutes; every other channel bills units directly.
// Unknown event types cost zero rather than failing the send.
func EstimateCost(channelType model.ChannelType, eventType string, units int, durationSeconds *int) int64 {
	table, ok := costTable[channelType]
	if !ok {
		return 0
	}

	suffix := strings.TrimPrefix(eventType, string(channelType)+"_")
	perUnit, ok := table[suffix]
	if !ok {
		return 0
	}

	if channelType == model.ChannelTypeVoice {
		if durationSeconds == nil || *durationSeconds <= 0 {
			return 0
		}
		minutes := int64((*durationSeconds + 59) / 60)
		return minutes * perUnit
	}

	if units <= 0 {
		return 0
	}

	return int64(units) * perUnit
}
