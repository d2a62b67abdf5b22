package sequence

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/constants"
	"github.com/coding-shalabh/nexora-api-sub000/internal/metrics"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
	"github.com/coding-shalabh/nexora-api-sub000/internal/service"
)

const (
	maxStepRetries = 3
	retryBackoff   = 5 * time.Minute
)

type Config struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
}

// Executor is the only autonomous background process: a single polling loop
// that picks up due step runs and drives enrollments forward. A tick never
// starts while the previous one is still processing its batch.
type Executor struct {
	cfg         Config
	sequences   repository.SequenceRepository
	enrollments repository.EnrollmentRepository
	stepRuns    repository.StepRunRepository
	tasks       repository.FollowUpTaskRepository
	contacts    repository.ContactRepository
	txManager   repository.TxManager
	channels    service.ChannelService
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time

	running atomic.Bool
	ticking atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewExecutor(cfg Config, sequences repository.SequenceRepository, enrollments repository.EnrollmentRepository,
	stepRuns repository.StepRunRepository, tasks repository.FollowUpTaskRepository,
	contacts repository.ContactRepository, txManager repository.TxManager,
	channels service.ChannelService, m *metrics.Metrics, logger *zap.Logger) *Executor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	return &Executor{
		cfg:         cfg,
		sequences:   sequences,
		enrollments: enrollments,
		stepRuns:    stepRuns,
		tasks:       tasks,
		contacts:    contacts,
		txManager:   txManager,
		channels:    channels,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

func (e *Executor) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})

	go e.loop(ctx)

	e.logger.Info("sequence executor started",
		zap.Duration("pollInterval", e.cfg.PollInterval),
		zap.Int("batchSize", e.cfg.BatchSize))
}

func (e *Executor) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running.CompareAndSwap(true, false) {
		return
	}

	e.cancel()
	<-e.done

	e.logger.Info("sequence executor stopped")
}

func (e *Executor) loop(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.ticking.CompareAndSwap(false, true) {
				e.logger.Warn("previous tick still running, skipping")
				continue
			}
			e.RunOnce(ctx)
			e.ticking.Store(false)
		}
	}
}

// RunOnce processes one batch of due step runs sequentially. A run's failure
// is contained to its own enrollment and never aborts the batch.
func (e *Executor) RunOnce(ctx context.Context) {
	runs, err := e.stepRuns.FindDue(e.now().UTC(), e.cfg.BatchSize)
	if err != nil {
		e.logger.Error("failed to fetch due step runs", zap.Error(err))
		return
	}

	for i := range runs {
		e.executeRun(ctx, &runs[i])
	}
}

func (e *Executor) executeRun(ctx context.Context, run *model.SequenceStepRun) {
	now := e.now().UTC()
	run.Status = model.StepRunStatusRunning
	run.StartedAt = &now
	run.UpdatedAt = now
	if err := e.stepRuns.Update(ctx, run); err != nil {
		e.logger.Error("failed to mark step run RUNNING",
			zap.Int64("stepRunID", run.ID), zap.Error(err))
		return
	}

	enrollment, err := e.enrollments.GetByID(run.EnrollmentID)
	if err != nil {
		e.failStep(ctx, run, nil, "", "enrollment lookup failed: "+err.Error())
		return
	}

	if enrollment.Status != model.EnrollmentStatusActive {
		e.finishRun(ctx, run, model.StepRunStatusSkipped)
		return
	}

	seq, err := e.sequences.GetByID(run.SequenceID)
	if err != nil {
		e.failStep(ctx, run, enrollment, "", "sequence lookup failed: "+err.Error())
		return
	}

	step, err := e.sequences.GetStep(run.SequenceID, run.StepNumber)
	if err != nil {
		e.failStep(ctx, run, enrollment, "", "step lookup failed: "+err.Error())
		return
	}

	if seq.DailyCap > 0 {
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		completed, err := e.stepRuns.CountCompletedSince(seq.ID, midnight)
		if err == nil && completed >= seq.DailyCap {
			e.deferRun(ctx, run, seq, now)
			return
		}
	}

	outcome := e.dispatch(ctx, seq, step, enrollment)
	switch outcome.kind {
	case outcomeSuccess:
		e.advance(ctx, run, seq, enrollment)
		e.countRun(step.StepType, model.StepRunStatusCompleted)
	case outcomeExit:
		e.finishRun(ctx, run, model.StepRunStatusCompleted)
		e.exitEnrollment(ctx, enrollment, outcome.reason)
		e.countRun(step.StepType, model.StepRunStatusCompleted)
	case outcomeFailure:
		e.failStep(ctx, run, enrollment, step.StepType, outcome.reason)
	case outcomeDeferred:
		e.rescheduleRun(ctx, run, now.Add(outcome.retryAfter), outcome.reason)
	}
}

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeFailure
	outcomeExit
	outcomeDeferred
)

type stepOutcome struct {
	kind       outcomeKind
	reason     string
	retryAfter time.Duration
}

func (e *Executor) dispatch(ctx context.Context, seq *model.Sequence, step *model.SequenceStep,
	enrollment *model.SequenceEnrollment) stepOutcome {
	switch step.StepType {
	case model.StepTypeWait:
		return stepOutcome{kind: outcomeSuccess}

	case model.StepTypeWhatsApp, model.StepTypeSMS, model.StepTypeEmail:
		return e.dispatchMessage(ctx, seq, step, enrollment)

	case model.StepTypeCall, model.StepTypeTask:
		return e.dispatchTask(ctx, step, enrollment)

	case model.StepTypeCondition:
		return e.dispatchCondition(step, enrollment)

	default:
		return stepOutcome{kind: outcomeFailure, reason: fmt.Sprintf("unknown step type %q", step.StepType)}
	}
}

func (e *Executor) dispatchMessage(ctx context.Context, seq *model.Sequence, step *model.SequenceStep,
	enrollment *model.SequenceEnrollment) stepOutcome {
	contact, err := e.contacts.GetByID(enrollment.ContactID)
	if err != nil {
		return stepOutcome{kind: outcomeFailure, reason: "contact lookup failed: " + err.Error()}
	}

	channelType := channelTypeFor(step.StepType)
	identifier := contact.IdentifierFor(channelType)
	if identifier == "" {
		return stepOutcome{kind: outcomeExit, reason: fmt.Sprintf("contact has no %s identifier", channelType)}
	}

	var result *service.SendMessageResult
	if step.TemplateID != nil {
		result, err = e.channels.SendTemplate(ctx, service.SendTemplateCommand{
			TenantID:         enrollment.TenantID,
			WorkspaceID:      enrollment.TenantID,
			ChannelAccountID: seq.SenderAccountID,
			To:               identifier,
			TemplateID:       *step.TemplateID,
			Variables:        map[string]string{"name": contact.Name},
		})
	} else {
		result, err = e.channels.SendMessage(ctx, service.SendMessageCommand{
			TenantID:         enrollment.TenantID,
			WorkspaceID:      enrollment.TenantID,
			ChannelAccountID: seq.SenderAccountID,
			To:               identifier,
			ContentType:      "text",
			Content:          step.Content,
		})
	}
	if err != nil {
		return stepOutcome{kind: outcomeFailure, reason: "send failed: " + err.Error()}
	}

	if result.Success {
		return stepOutcome{kind: outcomeSuccess}
	}

	// Consent outcomes are permanent for this contact; retrying cannot help.
	if result.ErrorCode == constants.ErrCodeOptedOut || result.ErrorCode == constants.ErrCodeNoConsent {
		return stepOutcome{kind: outcomeExit, reason: "send blocked: " + result.ErrorCode}
	}

	// A saturated window clears on its own; wait it out without consuming
	// a retry.
	if result.ErrorCode == constants.ErrCodeRateLimited {
		retryAfter := result.RetryAfter
		if retryAfter <= 0 {
			retryAfter = retryBackoff
		}
		return stepOutcome{kind: outcomeDeferred, reason: "rate limited", retryAfter: retryAfter}
	}

	return stepOutcome{kind: outcomeFailure, reason: "send failed: " + result.ErrorCode}
}

func (e *Executor) dispatchTask(ctx context.Context, step *model.SequenceStep,
	enrollment *model.SequenceEnrollment) stepOutcome {
	title := step.Content
	if title == "" {
		title = fmt.Sprintf("%s follow-up", step.StepType)
	}

	task := &model.FollowUpTask{
		TenantID:     enrollment.TenantID,
		ContactID:    enrollment.ContactID,
		EnrollmentID: enrollment.ID,
		Title:        title,
		DueAt:        e.now().UTC(),
		Status:       model.TaskStatusOpen,
		CreatedAt:    e.now().UTC(),
		UpdatedAt:    e.now().UTC(),
	}
	if err := e.tasks.Create(ctx, task); err != nil {
		return stepOutcome{kind: outcomeFailure, reason: "task creation failed: " + err.Error()}
	}

	return stepOutcome{kind: outcomeSuccess}
}

// dispatchCondition evaluates the step's field comparison against the contact.
// A false condition completes the run but exits the enrollment: the contact
// simply does not qualify for the rest of the sequence.
func (e *Executor) dispatchCondition(step *model.SequenceStep, enrollment *model.SequenceEnrollment) stepOutcome {
	if step.ConditionField == nil || step.ConditionOp == nil {
		return stepOutcome{kind: outcomeFailure, reason: "condition step missing field or operator"}
	}

	contact, err := e.contacts.GetByID(enrollment.ContactID)
	if err != nil {
		return stepOutcome{kind: outcomeFailure, reason: "contact lookup failed: " + err.Error()}
	}

	if evaluateCondition(contact, *step.ConditionField, *step.ConditionOp, step.ConditionValue) {
		return stepOutcome{kind: outcomeSuccess}
	}

	return stepOutcome{kind: outcomeExit, reason: "condition not met"}
}

func evaluateCondition(contact *model.Contact, field, op string, value *string) bool {
	var actual string
	switch field {
	case "name":
		actual = contact.Name
	case "phone":
		if contact.Phone != nil {
			actual = *contact.Phone
		}
	case "email":
		if contact.Email != nil {
			actual = *contact.Email
		}
	}

	switch op {
	case "EXISTS":
		return actual != ""
	case "EQUALS":
		return value != nil && actual == *value
	case "NOT_EQUALS":
		return value == nil || actual != *value
	default:
		return false
	}
}

// advance completes the run and moves the enrollment to the next step, or to
// COMPLETED when the last step just ran. The run update, enrollment update and
// next-run creation commit together.
func (e *Executor) advance(ctx context.Context, run *model.SequenceStepRun, seq *model.Sequence,
	enrollment *model.SequenceEnrollment) {
	now := e.now().UTC()
	run.Status = model.StepRunStatusCompleted
	run.CompletedAt = &now
	run.UpdatedAt = now

	total, err := e.sequences.CountSteps(seq.ID)
	if err != nil {
		e.logger.Error("failed to count sequence steps",
			zap.Int64("sequenceID", seq.ID), zap.Error(err))
		return
	}

	nextStepNumber := enrollment.CurrentStep + 1
	enrollment.StepsCompleted++
	enrollment.UpdatedAt = now

	var nextRun *model.SequenceStepRun
	if nextStepNumber > total {
		enrollment.Status = model.EnrollmentStatusCompleted
		enrollment.NextStepAt = nil
	} else {
		nextStep, err := e.sequences.GetStep(seq.ID, nextStepNumber)
		if err != nil {
			e.logger.Error("failed to load next step",
				zap.Int64("sequenceID", seq.ID), zap.Int("step", nextStepNumber), zap.Error(err))
			return
		}

		scheduledAt := now.Add(nextStep.Delay())
		if seq.BusinessHoursOnly {
			scheduledAt = AdjustToBusinessHours(scheduledAt, seq.WorkingHours)
		}

		enrollment.CurrentStep = nextStepNumber
		enrollment.NextStepAt = &scheduledAt
		nextRun = &model.SequenceStepRun{
			EnrollmentID: enrollment.ID,
			SequenceID:   seq.ID,
			StepNumber:   nextStepNumber,
			Status:       model.StepRunStatusScheduled,
			ScheduledAt:  scheduledAt,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	err = e.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := e.stepRuns.Update(txCtx, run); err != nil {
			return err
		}
		if err := e.enrollments.Update(txCtx, enrollment); err != nil {
			return err
		}
		if nextRun != nil {
			return e.stepRuns.Create(txCtx, nextRun)
		}
		return nil
	})
	if err != nil {
		e.logger.Error("failed to advance enrollment",
			zap.Int64("enrollmentID", enrollment.ID), zap.Error(err))
		return
	}

	if enrollment.Status == model.EnrollmentStatusCompleted {
		e.logger.Info("enrollment completed",
			zap.Int64("enrollmentID", enrollment.ID),
			zap.Int64("sequenceID", seq.ID))
	}
}

// failStep retries up to maxStepRetries with a fixed backoff, then fails the
// run and exits the whole enrollment. A terminal step failure never skips to
// the next step.
func (e *Executor) failStep(ctx context.Context, run *model.SequenceStepRun,
	enrollment *model.SequenceEnrollment, stepType model.StepType, reason string) {
	now := e.now().UTC()
	run.LastError = &reason
	run.UpdatedAt = now

	if run.RetryCount < maxStepRetries {
		retryAt := now.Add(retryBackoff)
		run.RetryCount++
		run.Status = model.StepRunStatusScheduled
		run.ScheduledAt = retryAt
		run.NextRetryAt = &retryAt

		if err := e.stepRuns.Update(ctx, run); err != nil {
			e.logger.Error("failed to reschedule step run",
				zap.Int64("stepRunID", run.ID), zap.Error(err))
			return
		}

		e.logger.Warn("step run failed, retry scheduled",
			zap.Int64("stepRunID", run.ID),
			zap.Int("retryCount", run.RetryCount),
			zap.Time("retryAt", retryAt),
			zap.String("reason", reason))
		return
	}

	run.Status = model.StepRunStatusFailed
	run.CompletedAt = &now
	if err := e.stepRuns.Update(ctx, run); err != nil {
		e.logger.Error("failed to mark step run FAILED",
			zap.Int64("stepRunID", run.ID), zap.Error(err))
	}

	e.countRun(stepType, model.StepRunStatusFailed)

	if enrollment != nil {
		e.exitEnrollment(ctx, enrollment, constants.ErrCodeSequenceStepFailed+": "+reason)
	}
}

func (e *Executor) exitEnrollment(ctx context.Context, enrollment *model.SequenceEnrollment, reason string) {
	now := e.now().UTC()
	enrollment.Status = model.EnrollmentStatusExited
	enrollment.ExitReason = &reason
	enrollment.NextStepAt = nil
	enrollment.UpdatedAt = now

	err := e.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := e.enrollments.Update(txCtx, enrollment); err != nil {
			return err
		}
		return e.stepRuns.CancelScheduledByEnrollment(txCtx, enrollment.ID)
	})
	if err != nil {
		e.logger.Error("failed to exit enrollment",
			zap.Int64("enrollmentID", enrollment.ID), zap.Error(err))
		return
	}

	e.logger.Warn("enrollment exited",
		zap.Int64("enrollmentID", enrollment.ID),
		zap.String("reason", reason))
}

func (e *Executor) finishRun(ctx context.Context, run *model.SequenceStepRun, status model.StepRunStatus) {
	now := e.now().UTC()
	run.Status = status
	run.CompletedAt = &now
	run.UpdatedAt = now

	if err := e.stepRuns.Update(ctx, run); err != nil {
		e.logger.Error("failed to finish step run",
			zap.Int64("stepRunID", run.ID), zap.Error(err))
	}
}

// deferRun pushes a run past the sequence's exhausted daily cap to the next
// day without consuming a retry.
func (e *Executor) deferRun(ctx context.Context, run *model.SequenceStepRun, seq *model.Sequence, now time.Time) {
	scheduledAt := now.Add(24 * time.Hour)
	if seq.BusinessHoursOnly {
		scheduledAt = AdjustToBusinessHours(scheduledAt, seq.WorkingHours)
	}

	e.rescheduleRun(ctx, run, scheduledAt, "daily cap reached")
}

// rescheduleRun moves a run to a later time. Unlike failStep this consumes no
// retry: the run is waiting out a transient condition, not failing.
func (e *Executor) rescheduleRun(ctx context.Context, run *model.SequenceStepRun, at time.Time, reason string) {
	run.Status = model.StepRunStatusScheduled
	run.ScheduledAt = at
	run.UpdatedAt = e.now().UTC()

	if err := e.stepRuns.Update(ctx, run); err != nil {
		e.logger.Error("failed to defer step run",
			zap.Int64("stepRunID", run.ID), zap.Error(err))
		return
	}

	e.logger.Info("step run deferred",
		zap.Int64("stepRunID", run.ID),
		zap.String("reason", reason),
		zap.Time("deferredTo", at))
}

func channelTypeFor(stepType model.StepType) model.ChannelType {
	switch stepType {
	case model.StepTypeWhatsApp:
		return model.ChannelTypeWhatsApp
	case model.StepTypeSMS:
		return model.ChannelTypeSMS
	case model.StepTypeEmail:
		return model.ChannelTypeEmail
	default:
		return model.ChannelTypeVoice
	}
}

func (e *Executor) countRun(stepType model.StepType, status model.StepRunStatus) {
	if e.metrics == nil {
		return
	}
	e.metrics.StepRunsTotal.WithLabelValues(string(stepType), string(status)).Inc()
}
