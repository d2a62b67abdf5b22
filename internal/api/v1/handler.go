package v1

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/constants"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/sequence"
	"github.com/coding-shalabh/nexora-api-sub000/internal/service"
	"github.com/coding-shalabh/nexora-api-sub000/internal/usage"
)

type Handler struct {
	logger      *zap.Logger
	channels    service.ChannelService
	consent     service.ConsentService
	meter       usage.Meter
	enrollments sequence.EnrollmentService
}

func NewHandler(logger *zap.Logger, channels service.ChannelService, consent service.ConsentService,
	meter usage.Meter, enrollments sequence.EnrollmentService) *Handler {
	return &Handler{
		logger:      logger,
		channels:    channels,
		consent:     consent,
		meter:       meter,
		enrollments: enrollments,
	}
}

func (h *Handler) Pong(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (h *Handler) SendMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request SendMessageRequest
	if err := c.BodyParser(&request); err != nil {
		return h.badRequest(c, err)
	}

	result, err := h.channels.SendMessage(ctx, service.SendMessageCommand{
		TenantID:         request.TenantID,
		WorkspaceID:      request.WorkspaceID,
		ChannelAccountID: request.ChannelAccountID,
		To:               request.To,
		Subject:          request.Subject,
		ContentType:      request.ContentType,
		Content:          request.Content,
		EventType:        request.EventType,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Error(err),
			zap.String("tenantID", request.TenantID),
			zap.Int64("channelAccountID", request.ChannelAccountID))
		return err
	}

	return h.sendResult(c, result)
}

func (h *Handler) SendTemplate(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request SendTemplateRequest
	if err := c.BodyParser(&request); err != nil {
		return h.badRequest(c, err)
	}

	result, err := h.channels.SendTemplate(ctx, service.SendTemplateCommand{
		TenantID:         request.TenantID,
		WorkspaceID:      request.WorkspaceID,
		ChannelAccountID: request.ChannelAccountID,
		To:               request.To,
		TemplateID:       request.TemplateID,
		Variables:        request.Variables,
		EventType:        request.EventType,
	})
	if err != nil {
		h.logger.Error("Failed to send template",
			zap.Error(err),
			zap.String("templateID", request.TemplateID))
		return err
	}

	return h.sendResult(c, result)
}

// sendResult maps an expected non-success outcome onto its HTTP status while
// still returning the persisted event id when one exists.
func (h *Handler) sendResult(c *fiber.Ctx, result *service.SendMessageResult) error {
	if result.Success {
		return c.Status(fiber.StatusCreated).JSON(SendMessageResponse{
			Status:         string(result.Status),
			MessageEventID: result.MessageEventID,
		})
	}

	return c.Status(constants.GetHTTPStatus(result.ErrorCode)).JSON(SendMessageResponse{
		Status:         string(result.Status),
		MessageEventID: result.MessageEventID,
		Code:           result.ErrorCode,
		Message:        constants.GetErrorMessage(result.ErrorCode),
		RetryAfterSecs: int64(result.RetryAfter.Seconds()),
	})
}

func (h *Handler) InboundWebhook(c *fiber.Ctx) error {
	ctx := c.UserContext()

	accountID, err := c.ParamsInt("accountId")
	if err != nil {
		return h.badRequest(c, err)
	}

	result, err := h.channels.ProcessInboundWebhook(ctx, service.WebhookCommand{
		ChannelAccountID: int64(accountID),
		Payload:          c.Body(),
	})
	if err != nil {
		h.logger.Error("Failed to process inbound webhook",
			zap.Error(err), zap.Int("accountID", accountID))
		return err
	}

	return c.Status(fiber.StatusOK).JSON(InboundWebhookResponse{
		MessageEventID: result.MessageEventID,
		ThreadID:       result.ThreadID,
		ContactID:      result.ContactID,
		Duplicate:      result.Duplicate,
	})
}

func (h *Handler) StatusWebhook(c *fiber.Ctx) error {
	ctx := c.UserContext()

	accountID, err := c.ParamsInt("accountId")
	if err != nil {
		return h.badRequest(c, err)
	}

	result, err := h.channels.ProcessStatusWebhook(ctx, service.WebhookCommand{
		ChannelAccountID: int64(accountID),
		Payload:          c.Body(),
	})
	if err != nil {
		h.logger.Error("Failed to process status webhook",
			zap.Error(err), zap.Int("accountID", accountID))
		return err
	}

	return c.Status(fiber.StatusOK).JSON(StatusWebhookResponse{
		MessageEventID: result.MessageEventID,
		Status:         string(result.Status),
	})
}

func (h *Handler) ThreadMessages(c *fiber.Ctx) error {
	ctx := c.UserContext()

	threadID, err := c.ParamsInt("id")
	if err != nil {
		return h.badRequest(c, err)
	}

	resp, err := h.channels.GetThreadMessages(ctx, service.GetThreadMessagesQuery{
		ThreadID: int64(threadID),
		Limit:    c.QueryInt("limit", 50),
		Offset:   c.QueryInt("offset", 0),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *Handler) GrantConsent(c *fiber.Ctx) error {
	return h.consentAction(c, h.consent.Grant)
}

func (h *Handler) RevokeConsent(c *fiber.Ctx) error {
	return h.consentAction(c, h.consent.Revoke)
}

func (h *Handler) RecordOptOut(c *fiber.Ctx) error {
	return h.consentAction(c, h.consent.RecordOptOut)
}

func (h *Handler) ClearOptOut(c *fiber.Ctx) error {
	return h.consentAction(c, h.consent.ClearOptOut)
}

func (h *Handler) consentAction(c *fiber.Ctx,
	action func(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) error) error {
	ctx := c.UserContext()

	var request ConsentRequest
	if err := c.BodyParser(&request); err != nil {
		return h.badRequest(c, err)
	}

	if err := action(ctx, request.TenantID, model.ChannelType(request.ChannelType), request.Identifier); err != nil {
		h.logger.Error("Consent action failed",
			zap.Error(err),
			zap.String("tenantID", request.TenantID),
			zap.String("identifier", request.Identifier))
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) Enroll(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request EnrollRequest
	if err := c.BodyParser(&request); err != nil {
		return h.badRequest(c, err)
	}

	enrollment, err := h.enrollments.Enroll(ctx, request.SequenceID, request.TenantID, request.ContactID)
	if err != nil {
		h.logger.Error("Failed to enroll contact",
			zap.Error(err),
			zap.Int64("sequenceID", request.SequenceID),
			zap.Int64("contactID", request.ContactID))
		return err
	}

	resp := EnrollResponse{EnrollmentID: enrollment.ID, Status: string(enrollment.Status)}
	if enrollment.NextStepAt != nil {
		resp.NextStepAt = enrollment.NextStepAt.UTC().Format(time.RFC3339)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *Handler) PauseEnrollment(c *fiber.Ctx) error {
	enrollmentID, err := c.ParamsInt("id")
	if err != nil {
		return h.badRequest(c, err)
	}

	if err := h.enrollments.Pause(c.UserContext(), int64(enrollmentID)); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) ResumeEnrollment(c *fiber.Ctx) error {
	enrollmentID, err := c.ParamsInt("id")
	if err != nil {
		return h.badRequest(c, err)
	}

	if err := h.enrollments.Resume(c.UserContext(), int64(enrollmentID)); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) WalletBalance(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tenantID := c.Query("tenant_id")
	workspaceID := c.Query("workspace_id")
	estimated := int64(c.QueryInt("estimated_cost", 0))

	check, err := h.meter.CheckBalance(ctx, tenantID, workspaceID, estimated)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(BalanceResponse{
		Balance:    check.Balance,
		Sufficient: check.Sufficient,
	})
}

func (h *Handler) badRequest(c *fiber.Ctx, err error) error {
	h.logger.Warn("Failed to parse request",
		zap.Error(err),
		zap.String("path", c.Path()))
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"code":    constants.ErrCodeInvalidRequestBody,
		"message": constants.GetErrorMessage(constants.ErrCodeInvalidRequestBody),
	})
}
