package sequence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
)

// EnrollmentService manages a contact's membership in a sequence. It also
// implements the channel service's reply listener so an inbound reply can
// pause enrollments in pause-on-reply sequences.
type EnrollmentService interface {
	Enroll(ctx context.Context, sequenceID int64, tenantID string, contactID int64) (*model.SequenceEnrollment, error)
	Pause(ctx context.Context, enrollmentID int64) error
	Resume(ctx context.Context, enrollmentID int64) error
	HandleInboundReply(ctx context.Context, tenantID string, contactID int64) error
}

type enrollmentService struct {
	sequences   repository.SequenceRepository
	enrollments repository.EnrollmentRepository
	stepRuns    repository.StepRunRepository
	txManager   repository.TxManager
	logger      *zap.Logger
	now         func() time.Time
}

var _ EnrollmentService = (*enrollmentService)(nil)

func NewEnrollmentService(sequences repository.SequenceRepository, enrollments repository.EnrollmentRepository,
	stepRuns repository.StepRunRepository, txManager repository.TxManager, logger *zap.Logger) EnrollmentService {
	return &enrollmentService{
		sequences:   sequences,
		enrollments: enrollments,
		stepRuns:    stepRuns,
		txManager:   txManager,
		logger:      logger,
		now:         time.Now,
	}
}

// Enroll creates an ACTIVE enrollment at step 1 and schedules the first run
// after the step's configured delay, adjusted into business hours when the
// sequence requires it.
func (e *enrollmentService) Enroll(ctx context.Context, sequenceID int64, tenantID string, contactID int64) (*model.SequenceEnrollment, error) {
	seq, err := e.sequences.GetByID(sequenceID)
	if err != nil {
		return nil, err
	}

	step, err := e.sequences.GetStep(sequenceID, 1)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	scheduledAt := now.Add(step.Delay())
	if seq.BusinessHoursOnly {
		scheduledAt = AdjustToBusinessHours(scheduledAt, seq.WorkingHours)
	}

	enrollment := &model.SequenceEnrollment{
		SequenceID:  sequenceID,
		TenantID:    tenantID,
		ContactID:   contactID,
		CurrentStep: 1,
		Status:      model.EnrollmentStatusActive,
		NextStepAt:  &scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = e.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := e.enrollments.Create(txCtx, enrollment); err != nil {
			return err
		}

		run := &model.SequenceStepRun{
			EnrollmentID: enrollment.ID,
			SequenceID:   sequenceID,
			StepNumber:   1,
			Status:       model.StepRunStatusScheduled,
			ScheduledAt:  scheduledAt,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return e.stepRuns.Create(txCtx, run)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("contact enrolled in sequence",
		zap.Int64("sequenceID", sequenceID),
		zap.Int64("contactID", contactID),
		zap.Time("firstStepAt", scheduledAt))

	return enrollment, nil
}

// Pause transitions an ACTIVE enrollment to PAUSED and cancels its scheduled
// runs in the same transaction.
func (e *enrollmentService) Pause(ctx context.Context, enrollmentID int64) error {
	enrollment, err := e.enrollments.GetByID(enrollmentID)
	if err != nil {
		return err
	}
	if enrollment.Status != model.EnrollmentStatusActive {
		return nil
	}

	return e.pauseLocked(ctx, enrollment)
}

func (e *enrollmentService) pauseLocked(ctx context.Context, enrollment *model.SequenceEnrollment) error {
	enrollment.Status = model.EnrollmentStatusPaused
	enrollment.UpdatedAt = e.now().UTC()

	return e.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := e.enrollments.Update(txCtx, enrollment); err != nil {
			return err
		}
		return e.stepRuns.CancelScheduledByEnrollment(txCtx, enrollment.ID)
	})
}

// Resume reactivates a PAUSED enrollment and reschedules the current step
// from now; the original schedule is not resumed.
func (e *enrollmentService) Resume(ctx context.Context, enrollmentID int64) error {
	enrollment, err := e.enrollments.GetByID(enrollmentID)
	if err != nil {
		return err
	}
	if enrollment.Status != model.EnrollmentStatusPaused {
		return nil
	}

	seq, err := e.sequences.GetByID(enrollment.SequenceID)
	if err != nil {
		return err
	}

	step, err := e.sequences.GetStep(enrollment.SequenceID, enrollment.CurrentStep)
	if err != nil {
		return err
	}

	now := e.now().UTC()
	scheduledAt := now.Add(step.Delay())
	if seq.BusinessHoursOnly {
		scheduledAt = AdjustToBusinessHours(scheduledAt, seq.WorkingHours)
	}

	enrollment.Status = model.EnrollmentStatusActive
	enrollment.NextStepAt = &scheduledAt
	enrollment.UpdatedAt = now

	return e.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := e.enrollments.Update(txCtx, enrollment); err != nil {
			return err
		}

		run := &model.SequenceStepRun{
			EnrollmentID: enrollment.ID,
			SequenceID:   enrollment.SequenceID,
			StepNumber:   enrollment.CurrentStep,
			Status:       model.StepRunStatusScheduled,
			ScheduledAt:  scheduledAt,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return e.stepRuns.Create(txCtx, run)
	})
}

// HandleInboundReply pauses every ACTIVE enrollment of the contact whose
// sequence has pause-on-reply enabled. One enrollment failing to pause does
// not stop the others.
func (e *enrollmentService) HandleInboundReply(ctx context.Context, tenantID string, contactID int64) error {
	enrollments, err := e.enrollments.FindActiveByContact(tenantID, contactID)
	if err != nil {
		return err
	}

	for i := range enrollments {
		enrollment := enrollments[i]

		seq, err := e.sequences.GetByID(enrollment.SequenceID)
		if err != nil {
			e.logger.Error("failed to load sequence for reply handling",
				zap.Int64("sequenceID", enrollment.SequenceID), zap.Error(err))
			continue
		}
		if !seq.PauseOnReply {
			continue
		}

		if err := e.pauseLocked(ctx, &enrollment); err != nil {
			e.logger.Error("failed to pause enrollment on reply",
				zap.Int64("enrollmentID", enrollment.ID), zap.Error(err))
			continue
		}

		e.logger.Info("enrollment paused on reply",
			zap.Int64("enrollmentID", enrollment.ID),
			zap.Int64("contactID", contactID))
	}

	return nil
}
