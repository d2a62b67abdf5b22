package constants

const (
	ErrCodeChannelNotFound    = "CHANNEL_NOT_FOUND"
	ErrCodeChannelDisabled    = "CHANNEL_DISABLED"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeOptedOut           = "OPTED_OUT"
	ErrCodeNoConsent          = "NO_CONSENT"
	ErrCodeVendorError        = "VENDOR_ERROR"
	ErrCodeSequenceStepFailed = "SEQUENCE_STEP_FAILED"
	ErrCodeWalletNotFound     = "WALLET_NOT_FOUND"
	ErrCodeSequenceNotFound   = "SEQUENCE_NOT_FOUND"
	ErrCodeEnrollmentNotFound = "ENROLLMENT_NOT_FOUND"
	ErrCodeThreadNotFound     = "THREAD_NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeInvalidRequestBody = "INVALID_REQUEST_BODY"
)

var errorMessages = map[string]string{
	ErrCodeChannelNotFound:    "channel account not found",
	ErrCodeChannelDisabled:    "channel account is disabled",
	ErrCodeRateLimited:        "rate limit exceeded, retry later",
	ErrCodeOptedOut:           "recipient has opted out",
	ErrCodeNoConsent:          "recipient has not granted consent",
	ErrCodeVendorError:        "channel vendor rejected the message",
	ErrCodeSequenceStepFailed: "sequence step failed",
	ErrCodeWalletNotFound:     "wallet not found",
	ErrCodeSequenceNotFound:   "sequence not found",
	ErrCodeEnrollmentNotFound: "enrollment not found",
	ErrCodeThreadNotFound:     "thread not found",
	ErrCodeInternalError:      "Internal server error",
	ErrCodeInvalidRequestBody: "failed to parse request body",
}

func GetErrorMessage(code string) string {
	if msg, exists := errorMessages[code]; exists {
		return msg
	}
	return errorMessages[ErrCodeInternalError]
}

func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeInvalidRequestBody:
		return 400
	case ErrCodeOptedOut, ErrCodeNoConsent:
		return 403
	case ErrCodeChannelNotFound, ErrCodeWalletNotFound, ErrCodeSequenceNotFound,
		ErrCodeEnrollmentNotFound, ErrCodeThreadNotFound:
		return 404
	case ErrCodeChannelDisabled:
		return 409
	case ErrCodeRateLimited:
		return 429
	case ErrCodeVendorError:
		return 502
	case ErrCodeInternalError:
		return 500
	default:
		return 500
	}
}
