package model

import "time"

type StepType string

const (
	StepTypeWhatsApp  StepType = "WHATSAPP"
	StepTypeSMS       StepType = "SMS"
	StepTypeEmail     StepType = "EMAIL"
	StepTypeCall      StepType = "CALL"
	StepTypeTask      StepType = "TASK"
	StepTypeWait      StepType = "WAIT"
	StepTypeCondition StepType = "CONDITION"
)

// DayHours is one weekday's working window, "15:04" formatted local times.
type DayHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WorkingHours maps enabled weekdays to their working window. Weekdays absent
// from the map are non-working days.
type WorkingHours map[time.Weekday]DayHours

type Sequence struct {
	ID                int64        `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	TenantID          string       `gorm:"column:tenant_id;index"`
	Name              string       `gorm:"column:name"`
	SenderAccountID   int64        `gorm:"column:sender_account_id"`
	BusinessHoursOnly bool         `gorm:"column:business_hours_only"`
	WorkingHours      WorkingHours `gorm:"column:working_hours;serializer:json"`
	PauseOnReply      bool         `gorm:"column:pause_on_reply"`
	DailyCap          int          `gorm:"column:daily_cap"`
	CreatedAt         time.Time    `gorm:"column:created_at"`
	UpdatedAt         time.Time    `gorm:"column:updated_at"`
}

type SequenceStep struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	SequenceID     int64     `gorm:"column:sequence_id;index:idx_step_sequence_number,unique"`
	StepNumber     int       `gorm:"column:step_number;index:idx_step_sequence_number,unique"`
	StepType       StepType  `gorm:"column:step_type"`
	TemplateID     *string   `gorm:"column:template_id"`
	Content        string    `gorm:"column:content"`
	DelayDays      int       `gorm:"column:delay_days"`
	DelayHours     int       `gorm:"column:delay_hours"`
	DelayMinutes   int       `gorm:"column:delay_minutes"`
	ConditionField *string   `gorm:"column:condition_field"`
	ConditionOp    *string   `gorm:"column:condition_op"`
	ConditionValue *string   `gorm:"column:condition_value"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

// Delay is the configured wait before this step executes.
func (s *SequenceStep) Delay() time.Duration {
	return time.Duration(s.DelayDays)*24*time.Hour +
		time.Duration(s.DelayHours)*time.Hour +
		time.Duration(s.DelayMinutes)*time.Minute
}

type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusPaused    EnrollmentStatus = "PAUSED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusExited    EnrollmentStatus = "EXITED"
)

// SequenceEnrollment is one contact progressing through one sequence.
// CurrentStep is 1-based.
type SequenceEnrollment struct {
	ID             int64            `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	SequenceID     int64            `gorm:"column:sequence_id;index"`
	TenantID       string           `gorm:"column:tenant_id;index"`
	ContactID      int64            `gorm:"column:contact_id;index"`
	CurrentStep    int              `gorm:"column:current_step"`
	Status         EnrollmentStatus `gorm:"column:status"`
	NextStepAt     *time.Time       `gorm:"column:next_step_at"`
	StepsCompleted int              `gorm:"column:steps_completed"`
	ExitReason     *string          `gorm:"column:exit_reason"`
	CreatedAt      time.Time        `gorm:"column:created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at"`
}

type StepRunStatus string

const (
	StepRunStatusScheduled StepRunStatus = "SCHEDULED"
	StepRunStatusRunning   StepRunStatus = "RUNNING"
	StepRunStatusCompleted StepRunStatus = "COMPLETED"
	StepRunStatusFailed    StepRunStatus = "FAILED"
	StepRunStatusSkipped   StepRunStatus = "SKIPPED"
	StepRunStatusCancelled StepRunStatus = "CANCELLED"
)

// SequenceStepRun is one scheduled or executed attempt of one step for one
// enrollment. Terminal states are immutable.
type SequenceStepRun struct {
	ID           int64         `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	EnrollmentID int64         `gorm:"column:enrollment_id;index"`
	SequenceID   int64         `gorm:"column:sequence_id;index"`
	StepNumber   int           `gorm:"column:step_number"`
	Status       StepRunStatus `gorm:"column:status;index"`
	ScheduledAt  time.Time     `gorm:"column:scheduled_at;index"`
	StartedAt    *time.Time    `gorm:"column:started_at"`
	CompletedAt  *time.Time    `gorm:"column:completed_at"`
	RetryCount   int           `gorm:"column:retry_count"`
	NextRetryAt  *time.Time    `gorm:"column:next_retry_at"`
	LastError    *string       `gorm:"column:last_error"`
	CreatedAt    time.Time     `gorm:"column:created_at"`
	UpdatedAt    time.Time     `gorm:"column:updated_at"`
}

type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "OPEN"
	TaskStatusDone TaskStatus = "DONE"
)

// FollowUpTask is created by CALL and TASK sequence steps for a human to pick up.
type FollowUpTask struct {
	ID           int64      `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	TenantID     string     `gorm:"column:tenant_id;index"`
	ContactID    int64      `gorm:"column:contact_id"`
	EnrollmentID int64      `gorm:"column:enrollment_id"`
	Title        string     `gorm:"column:title"`
	DueAt        time.Time  `gorm:"column:due_at"`
	Status       TaskStatus `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}
