package repository

import (
	"context"
	"errors"
	"time"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"gorm.io/gorm"
)

var ErrSequenceNotFound = errors.New("SEQUENCE_NOT_FOUND")
var ErrStepNotFound = errors.New("STEP_NOT_FOUND")
var ErrEnrollmentNotFound = errors.New("ENROLLMENT_NOT_FOUND")
var ErrStepRunNotFound = errors.New("STEP_RUN_NOT_FOUND")

type SequenceRepository interface {
	GetByID(id int64) (*model.Sequence, error)
	GetStep(sequenceID int64, stepNumber int) (*model.SequenceStep, error)
	CountSteps(sequenceID int64) (int, error)
}

type Sequence struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &Sequence{db: db}
}

func (s *Sequence) GetByID(id int64) (*model.Sequence, error) {
	var sequence model.Sequence

	err := s.db.Where("id = ?", id).First(&sequence).Error
	if err == nil {
		return &sequence, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSequenceNotFound
	}

	return nil, err
}

func (s *Sequence) GetStep(sequenceID int64, stepNumber int) (*model.SequenceStep, error) {
	var step model.SequenceStep

	err := s.db.Where("sequence_id = ? AND step_number = ?", sequenceID, stepNumber).
		First(&step).Error
	if err == nil {
		return &step, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStepNotFound
	}

	return nil, err
}

func (s *Sequence) CountSteps(sequenceID int64) (int, error) {
	var count int64

	err := s.db.Model(&model.SequenceStep{}).
		Where("sequence_id = ?", sequenceID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.SequenceEnrollment) error
	Update(ctx context.Context, enrollment *model.SequenceEnrollment) error
	GetByID(id int64) (*model.SequenceEnrollment, error)
	FindActiveByContact(tenantID string, contactID int64) ([]model.SequenceEnrollment, error)
}

type Enrollment struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &Enrollment{db: db}
}

func (e *Enrollment) Create(ctx context.Context, enrollment *model.SequenceEnrollment) error {
	db := GetTx(ctx, e.db)
	return db.Create(enrollment).Error
}

func (e *Enrollment) Update(ctx context.Context, enrollment *model.SequenceEnrollment) error {
	db := GetTx(ctx, e.db)
	return db.Model(enrollment).Where("id = ?", enrollment.ID).Updates(enrollment).Error
}

func (e *Enrollment) GetByID(id int64) (*model.SequenceEnrollment, error) {
	var enrollment model.SequenceEnrollment

	err := e.db.Where("id = ?", id).First(&enrollment).Error
	if err == nil {
		return &enrollment, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEnrollmentNotFound
	}

	return nil, err
}

func (e *Enrollment) FindActiveByContact(tenantID string, contactID int64) ([]model.SequenceEnrollment, error) {
	var enrollments []model.SequenceEnrollment

	err := e.db.Where("tenant_id = ? AND contact_id = ? AND status = ?",
		tenantID, contactID, model.EnrollmentStatusActive).
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}

	return enrollments, nil
}

type StepRunRepository interface {
	Create(ctx context.Context, run *model.SequenceStepRun) error
	Update(ctx context.Context, run *model.SequenceStepRun) error
	FindDue(now time.Time, limit int) ([]model.SequenceStepRun, error)
	CancelScheduledByEnrollment(ctx context.Context, enrollmentID int64) error
	CountCompletedSince(sequenceID int64, since time.Time) (int, error)
}

type StepRun struct {
	db *gorm.DB
}

func NewStepRunRepository(db *gorm.DB) StepRunRepository {
	return &StepRun{db: db}
}

func (r *StepRun) Create(ctx context.Context, run *model.SequenceStepRun) error {
	db := GetTx(ctx, r.db)
	return db.Create(run).Error
}

func (r *StepRun) Update(ctx context.Context, run *model.SequenceStepRun) error {
	db := GetTx(ctx, r.db)
	return db.Model(run).Where("id = ?", run.ID).Updates(run).Error
}

func (r *StepRun) FindDue(now time.Time, limit int) ([]model.SequenceStepRun, error) {
	var runs []model.SequenceStepRun

	err := r.db.Where("status = ? AND scheduled_at <= ?", model.StepRunStatusScheduled, now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}

	return runs, nil
}

func (r *StepRun) CancelScheduledByEnrollment(ctx context.Context, enrollmentID int64) error {
	db := GetTx(ctx, r.db)
	return db.Model(&model.SequenceStepRun{}).
		Where("enrollment_id = ? AND status = ?", enrollmentID, model.StepRunStatusScheduled).
		Updates(map[string]interface{}{"status": model.StepRunStatusCancelled, "updated_at": time.Now()}).Error
}

func (r *StepRun) CountCompletedSince(sequenceID int64, since time.Time) (int, error) {
	var count int64

	err := r.db.Model(&model.SequenceStepRun{}).
		Where("sequence_id = ? AND status = ? AND completed_at >= ?",
			sequenceID, model.StepRunStatusCompleted, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

type FollowUpTaskRepository interface {
	Create(ctx context.Context, task *model.FollowUpTask) error
}

type FollowUpTask struct {
	db *gorm.DB
}

func NewFollowUpTaskRepository(db *gorm.DB) FollowUpTaskRepository {
	return &FollowUpTask{db: db}
}

func (t *FollowUpTask) Create(ctx context.Context, task *model.FollowUpTask) error {
	db := GetTx(ctx, t.db)
	return db.Create(task).Error
}
