package eventstore

import (
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbmodels "approval-backend/models/db"
)

// Provider - хранилище процессов согласования.
// Все методы Get*ForUpdate и First*/Find* по непройденным этапам берут
// блокировку строки: чтение и последующая запись одного действия
// выполняются внутри одной транзакции, конкурентные действия
// сериализуются на этих блокировках.
type Provider interface {
	GetForUpdate(requestableType, requestableID string) (rec *dbmodels.ApprovalEvent, err error)
	GetByRequestable(requestableType, requestableID string) (rec *dbmodels.ApprovalEvent, err error)
	GetByID(id string) (rec *dbmodels.ApprovalEvent, err error)
	List(status string) (list []dbmodels.ApprovalEvent, err error)
	// Create - блокировка в GetForUpdate не сериализует конкурентное
	// первое создание по одной сущности (строки еще нет), гонку закрывает
	// уникальный индекс idx_requestable: проигравшая транзакция получает
	// ошибку нарушения уникальности, повтор действия увидит созданный процесс
	Create(rec *dbmodels.ApprovalEvent) error
	Save(rec *dbmodels.ApprovalEvent) error

	CreateComponent(rec *dbmodels.ApprovalEventComponent) error
	SaveComponent(rec *dbmodels.ApprovalEventComponent) error
	// UpsertComponent - компонент процесса по ключу (процесс, бит этапа);
	// существующая запись перезаписывается значениями upd
	UpsertComponent(eventID string, stepMask int64, upd dbmodels.ApprovalEventComponent) (rec *dbmodels.ApprovalEventComponent, err error)
	FindComponentByMask(eventID string, stepMask int64) (rec *dbmodels.ApprovalEventComponent, err error)
	FirstPendingComponent(eventID string) (rec *dbmodels.ApprovalEventComponent, err error)
	FirstPendingComponentForUser(eventID, userID string) (rec *dbmodels.ApprovalEventComponent, err error)
	MarkComponentsApproved(eventID string, stepMask int64, now time.Time) error
	MarkAllComponentsApproved(eventID string, now time.Time) error

	HasContributors(componentID string) (exist bool, err error)
	GetContributorForUpdate(componentID, userID string) (rec *dbmodels.ApprovalEventContributor, err error)
	ListContributors(componentID string) (list []dbmodels.ApprovalEventContributor, err error)
	EnsureContributor(componentID, userID string) error
	SaveContributor(rec *dbmodels.ApprovalEventContributor) error
	ResetContributors(componentID string, cancelledAt time.Time) error
	// DeleteContributorsExcept - синхронизация состава согласующих при rollback:
	// удаляются записи пользователей, не попавших в актуальный набор
	DeleteContributorsExcept(componentID string, userIDs []string) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) GetForUpdate(requestableType, requestableID string) (*dbmodels.ApprovalEvent, error) {
	rec := dbmodels.ApprovalEvent{}
	err := i.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("requestable_type = ?", requestableType).
		Where("requestable_id = ?", requestableID).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) GetByRequestable(requestableType, requestableID string) (*dbmodels.ApprovalEvent, error) {
	rec := dbmodels.ApprovalEvent{}
	err := i.db.
		Where("requestable_type = ?", requestableType).
		Where("requestable_id = ?", requestableID).
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("approval_event_components.step")
		}).
		Preload("Components.Contributors.User").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) GetByID(id string) (*dbmodels.ApprovalEvent, error) {
	rec := dbmodels.ApprovalEvent{}
	err := i.db.
		Where("id = ?", id).
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("approval_event_components.step")
		}).
		Preload("Components.Contributors.User").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) List(status string) (list []dbmodels.ApprovalEvent, err error) {
	list = []dbmodels.ApprovalEvent{}
	tx := i.db.
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("approval_event_components.step")
		}).
		Preload("Components.Contributors.User").
		Order("created_at")
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	err = tx.Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) Create(rec *dbmodels.ApprovalEvent) error {
	return i.db.Omit(clause.Associations).Create(rec).Error
}

func (i impl) Save(rec *dbmodels.ApprovalEvent) error {
	return i.db.Omit(clause.Associations).Save(rec).Error
}

func (i impl) CreateComponent(rec *dbmodels.ApprovalEventComponent) error {
	return i.db.Omit(clause.Associations).Create(rec).Error
}

func (i impl) SaveComponent(rec *dbmodels.ApprovalEventComponent) error {
	return i.db.Omit(clause.Associations).Save(rec).Error
}

func (i impl) UpsertComponent(eventID string, stepMask int64, upd dbmodels.ApprovalEventComponent) (*dbmodels.ApprovalEventComponent, error) {
	rec := dbmodels.ApprovalEventComponent{}
	err := i.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("approval_event_id = ?", eventID).
		Where("step = ?", stepMask).
		First(&rec).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		upd.ApprovalEventID = eventID
		upd.StepMask = stepMask
		if err = i.CreateComponent(&upd); err != nil {
			return nil, err
		}
		return &upd, nil
	}
	rec.Name = upd.Name
	rec.Logic = upd.Logic
	rec.Color = upd.Color
	rec.ApprovedAt = upd.ApprovedAt
	rec.RejectedAt = upd.RejectedAt
	rec.CancelledAt = upd.CancelledAt
	rec.RollbackAt = upd.RollbackAt
	err = i.db.Omit(clause.Associations).Save(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (i impl) FindComponentByMask(eventID string, stepMask int64) (*dbmodels.ApprovalEventComponent, error) {
	rec := dbmodels.ApprovalEventComponent{}
	err := i.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("approval_event_id = ?", eventID).
		Where("approved_at IS NULL").
		Where("(step & ?) = ?", stepMask, stepMask).
		Order("step").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) FirstPendingComponent(eventID string) (*dbmodels.ApprovalEventComponent, error) {
	rec := dbmodels.ApprovalEventComponent{}
	err := i.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("approval_event_id = ?", eventID).
		Where("approved_at IS NULL").
		Order("step").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) FirstPendingComponentForUser(eventID, userID string) (*dbmodels.ApprovalEventComponent, error) {
	rec := dbmodels.ApprovalEventComponent{}
	contributorComponents := i.db.
		Model(&dbmodels.ApprovalEventContributor{}).
		Select("approval_event_component_id").
		Where("user_id = ?", userID)
	err := i.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("approval_event_id = ?", eventID).
		Where("approved_at IS NULL").
		Where("id IN (?)", contributorComponents).
		Order("step").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) MarkComponentsApproved(eventID string, stepMask int64, now time.Time) error {
	return i.db.
		Model(&dbmodels.ApprovalEventComponent{}).
		Where("approval_event_id = ?", eventID).
		Where("(step & ?) = step", stepMask).
		Update("approved_at", now).
		Error
}

func (i impl) MarkAllComponentsApproved(eventID string, now time.Time) error {
	return i.db.
		Model(&dbmodels.ApprovalEventComponent{}).
		Where("approval_event_id = ?", eventID).
		Update("approved_at", now).
		Error
}

func (i impl) HasContributors(componentID string) (bool, error) {
	var count int64
	err := i.db.
		Model(&dbmodels.ApprovalEventContributor{}).
		Where("approval_event_component_id = ?", componentID).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (i impl) GetContributorForUpdate(componentID, userID string) (*dbmodels.ApprovalEventContributor, error) {
	rec := dbmodels.ApprovalEventContributor{}
	err := i.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("approval_event_component_id = ?", componentID).
		Where("user_id = ?", userID).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) ListContributors(componentID string) (list []dbmodels.ApprovalEventContributor, err error) {
	list = []dbmodels.ApprovalEventContributor{}
	err = i.db.
		Where("approval_event_component_id = ?", componentID).
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) EnsureContributor(componentID, userID string) error {
	rec := dbmodels.ApprovalEventContributor{}
	err := i.db.
		Where("approval_event_component_id = ?", componentID).
		Where("user_id = ?", userID).
		First(&rec).
		Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	rec = dbmodels.ApprovalEventContributor{
		ApprovalEventComponentID: componentID,
		UserID:                   userID,
	}
	return i.db.Omit(clause.Associations).Create(&rec).Error
}

func (i impl) SaveContributor(rec *dbmodels.ApprovalEventContributor) error {
	return i.db.Omit(clause.Associations).Save(rec).Error
}

func (i impl) ResetContributors(componentID string, cancelledAt time.Time) error {
	return i.db.
		Model(&dbmodels.ApprovalEventContributor{}).
		Where("approval_event_component_id = ?", componentID).
		Updates(map[string]interface{}{
			"cancelled_at": cancelledAt,
			"approved_at":  nil,
			"rejected_at":  nil,
			"rollback_at":  nil,
		}).
		Error
}

func (i impl) DeleteContributorsExcept(componentID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return i.db.
			Where("approval_event_component_id = ?", componentID).
			Delete(&dbmodels.ApprovalEventContributor{}).
			Error
	}
	return i.db.
		Where("approval_event_component_id = ?", componentID).
		Where("user_id <> ALL(?)", pq.Array(userIDs)).
		Delete(&dbmodels.ApprovalEventContributor{}).
		Error
}
