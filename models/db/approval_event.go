package dbmodels

import (
	"time"

	"approval-backend/models"
)

// ApprovalEvent - запущенный процесс согласования.
// Единственный на пару (requestable_type, requestable_id).
// Step - маска пройденных этапов, Target - маска всех этапов процесса.
type ApprovalEvent struct {
	BaseModel
	AuditModel
	ApprovalFlowID  *string `gorm:"type:varchar(36)"`
	RequestableType string  `gorm:"type:varchar(255);index:idx_requestable,unique"`
	RequestableID   string  `gorm:"type:varchar(36);index:idx_requestable,unique"`
	RunMode         models.ApprovalRunMode `gorm:"type:varchar(50)"`
	Status          models.ApprovalStatus  `gorm:"type:varchar(50)"`
	Step            int64
	Target          int64
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	CancelledAt     *time.Time
	RollbackAt      *time.Time
	Components      []ApprovalEventComponent `gorm:"foreignKey:ApprovalEventID"`
}

func (e ApprovalEvent) IsApproved() bool {
	return e.ApprovedAt != nil
}

func (e ApprovalEvent) IsRejected() bool {
	return e.RejectedAt != nil
}

func (e ApprovalEvent) IsCancelled() bool {
	return e.CancelledAt != nil
}

func (e ApprovalEvent) IsRollback() bool {
	return e.RollbackAt != nil
}

// IsFinal - терминальное состояние поглощает дальнейшие действия
func (e ApprovalEvent) IsFinal() bool {
	return e.IsApproved() || e.IsRejected() || e.IsCancelled()
}

// CurrentComponent - первый непройденный этап по порядку битов
func (e ApprovalEvent) CurrentComponent() *ApprovalEventComponent {
	for k := range e.Components {
		if e.Step&e.Components[k].StepMask == 0 {
			return &e.Components[k]
		}
	}
	return nil
}

// CanApprove - может ли пользователь проголосовать на текущем этапе
func (e ApprovalEvent) CanApprove(userID string) bool {
	if e.IsFinal() {
		return false
	}
	component := e.CurrentComponent()
	if component == nil || component.IsApproved() || component.IsRejected() || component.IsCancelled() {
		return false
	}
	if len(component.Contributors) == 0 {
		return true
	}
	for _, contributor := range component.Contributors {
		if contributor.UserID == userID && contributor.ApprovedAt == nil {
			return true
		}
	}
	return false
}

// ApprovalEventComponent - копия этапа маршрута на момент запуска процесса,
// чтобы последующие правки настройки не меняли уже идущее согласование.
// StepMask хранит ровно один бит.
type ApprovalEventComponent struct {
	BaseModel
	ApprovalEventID string `gorm:"type:varchar(36);index:idx_event_step,unique"`
	Name            string `gorm:"type:varchar(255)"`
	StepMask        int64  `gorm:"column:step;index:idx_event_step,unique"`
	Logic           models.ComponentLogic `gorm:"type:varchar(10)"`
	Color           string                `gorm:"type:varchar(20)"`
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	CancelledAt     *time.Time
	RollbackAt      *time.Time
	Contributors    []ApprovalEventContributor `gorm:"foreignKey:ApprovalEventComponentID"`
}

func (c ApprovalEventComponent) IsApproved() bool {
	return c.ApprovedAt != nil
}

func (c ApprovalEventComponent) IsRejected() bool {
	return c.RejectedAt != nil
}

func (c ApprovalEventComponent) IsCancelled() bool {
	return c.CancelledAt != nil
}

// ApprovalEventContributor - голос конкретного пользователя на этапе.
// Именно эти записи меняются конкурентно и читаются под блокировкой.
type ApprovalEventContributor struct {
	BaseModel
	ApprovalEventComponentID string `gorm:"type:varchar(36);index:idx_component_user,unique"`
	UserID                   string `gorm:"type:varchar(36);index:idx_component_user,unique"`
	User                     *User  `gorm:"foreignKey:UserID"`
	ApprovedAt               *time.Time
	RejectedAt               *time.Time
	CancelledAt              *time.Time
	RollbackAt               *time.Time
}

func (c ApprovalEventContributor) IsApproved() bool {
	return c.ApprovedAt != nil
}

func (c ApprovalEventContributor) IsRejected() bool {
	return c.RejectedAt != nil
}
