package approvalhandler

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"approval-backend/config"
	"approval-backend/db"
	actionhandler "approval-backend/lib/approval/action"
	"approval-backend/lib/approval/contributors"
	eventhandler "approval-backend/lib/approval/event"
	eventstore "approval-backend/lib/approval/event-store"
	flowstore "approval-backend/lib/approval/flow-store"
	groupstore "approval-backend/lib/approval/group-store"
	approvalnotify "approval-backend/lib/approval/notify"
	usersstore "approval-backend/lib/users/store"
	"approval-backend/models"
	dbmodels "approval-backend/models/db"
)

// RequestableLoader - загрузка согласуемой сущности по идентификатору
// в рамках транзакции действия
type RequestableLoader func(tx *gorm.DB, id string) (models.Requestable, error)

var requestableLoaders = map[string]RequestableLoader{}

// RegisterRequestable - регистрация типа согласуемой сущности.
// Вызывается из инициализации предметных модулей до старта сервера.
func RegisterRequestable(requestableType string, loader RequestableLoader) {
	requestableLoaders[requestableType] = loader
}

// Provider - фасад процессов согласования.
// Держит транзакционную границу: каждое действие выполняется целиком
// в одной транзакции, уведомления уходят после фиксации.
type Provider interface {
	Store(requestableType, id string) (rec *dbmodels.ApprovalEvent, err error)
	Get(requestableType, id string) (rec *dbmodels.ApprovalEvent, err error)
	List(status string) (list []dbmodels.ApprovalEvent, err error)
	Approve(requestableType, id, userID string, mask *int64) (rec *dbmodels.ApprovalEvent, err error)
	Reject(requestableType, id, userID string, mask *int64) (rec *dbmodels.ApprovalEvent, err error)
	Cancel(requestableType, id, userID string, mask *int64) (rec *dbmodels.ApprovalEvent, err error)
	Rollback(requestableType, id string) (rec *dbmodels.ApprovalEvent, err error)
	Force(requestableType, id string, mask *int64, status *models.ApprovalStatus) (rec *dbmodels.ApprovalEvent, err error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		events:   eventstore.NewInstance(db.DB),
		notifier: approvalnotify.Instance,
	}
}

type impl struct {
	events   eventstore.Provider
	notifier approvalnotify.Provider
}

func (i impl) Store(requestableType, id string) (*dbmodels.ApprovalEvent, error) {
	logger := log.
		WithField("requestable_type", requestableType).
		WithField("requestable_id", id)
	var rec *dbmodels.ApprovalEvent
	var created bool
	err := i.inTx(requestableType, id, func(tx *gorm.DB, requestable models.Requestable, e engine) (err error) {
		rec, created, err = e.store.Store(requestable)
		return err
	})
	if err != nil {
		logger.WithError(err).Error("ошибка запуска согласования")
		return nil, err
	}
	if created {
		logger.WithField("status", rec.Status).Info("запущено согласование")
		i.notifyAwaiting(rec)
	}
	return rec, nil
}

func (i impl) Get(requestableType, id string) (*dbmodels.ApprovalEvent, error) {
	if _, exist := requestableLoaders[requestableType]; !exist {
		return nil, models.ErrRequestableTypeUnknown
	}
	return i.events.GetByRequestable(requestableType, id)
}

func (i impl) List(status string) ([]dbmodels.ApprovalEvent, error) {
	return i.events.List(status)
}

func (i impl) Approve(requestableType, id, userID string, mask *int64) (*dbmodels.ApprovalEvent, error) {
	logger := log.
		WithField("requestable_type", requestableType).
		WithField("requestable_id", id).
		WithField("user_id", userID)
	var rec *dbmodels.ApprovalEvent
	err := i.inTx(requestableType, id, func(tx *gorm.DB, requestable models.Requestable, e engine) (err error) {
		rec, err = e.action.Approve(requestable, userID, mask)
		return err
	})
	if err != nil {
		logger.WithError(err).Error("ошибка согласования")
		return nil, errors.Wrap(err, "ошибка выполнения действия approve")
	}
	logger.WithField("status", rec.Status).Info("голос за согласование учтен")
	if rec.IsApproved() {
		i.notifyResolved(rec, models.PushApprovalApproved)
	} else {
		i.notifyAwaiting(rec)
	}
	return rec, nil
}

func (i impl) Reject(requestableType, id, userID string, mask *int64) (*dbmodels.ApprovalEvent, error) {
	logger := log.
		WithField("requestable_type", requestableType).
		WithField("requestable_id", id).
		WithField("user_id", userID)
	var rec *dbmodels.ApprovalEvent
	err := i.inTx(requestableType, id, func(tx *gorm.DB, requestable models.Requestable, e engine) (err error) {
		rec, err = e.action.Reject(requestable, userID, mask)
		return err
	})
	if err != nil {
		logger.WithError(err).Error("ошибка отклонения")
		return nil, errors.Wrap(err, "ошибка выполнения действия reject")
	}
	logger.WithField("status", rec.Status).Info("голос против учтен")
	if rec.IsRejected() {
		i.notifyResolved(rec, models.PushApprovalRejected)
	}
	return rec, nil
}

func (i impl) Cancel(requestableType, id, userID string, mask *int64) (*dbmodels.ApprovalEvent, error) {
	logger := log.
		WithField("requestable_type", requestableType).
		WithField("requestable_id", id).
		WithField("user_id", userID)
	var rec *dbmodels.ApprovalEvent
	err := i.inTx(requestableType, id, func(tx *gorm.DB, requestable models.Requestable, e engine) (err error) {
		rec, err = e.action.Cancel(requestable, userID, mask)
		return err
	})
	if err != nil {
		logger.WithError(err).Error("ошибка отзыва")
		return nil, errors.Wrap(err, "ошибка выполнения действия cancel")
	}
	logger.WithField("status", rec.Status).Info("этап согласования отозван")
	return rec, nil
}

func (i impl) Rollback(requestableType, id string) (*dbmodels.ApprovalEvent, error) {
	logger := log.
		WithField("requestable_type", requestableType).
		WithField("requestable_id", id)
	var rec *dbmodels.ApprovalEvent
	err := i.inTx(requestableType, id, func(tx *gorm.DB, requestable models.Requestable, e engine) (err error) {
		rec, err = e.action.Rollback(requestable)
		return err
	})
	if err != nil {
		logger.WithError(err).Error("ошибка возврата на согласование")
		return nil, errors.Wrap(err, "ошибка выполнения действия rollback")
	}
	logger.Info("процесс возвращен на согласование")
	i.notifyResolved(rec, models.PushApprovalRollback)
	i.notifyAwaiting(rec)
	return rec, nil
}

func (i impl) Force(requestableType, id string, mask *int64, status *models.ApprovalStatus) (*dbmodels.ApprovalEvent, error) {
	logger := log.
		WithField("requestable_type", requestableType).
		WithField("requestable_id", id)
	var rec *dbmodels.ApprovalEvent
	err := i.inTx(requestableType, id, func(tx *gorm.DB, requestable models.Requestable, e engine) (err error) {
		rec, err = e.action.Force(requestable, mask, status)
		return err
	})
	if err != nil {
		logger.WithError(err).Error("ошибка принудительного перевода")
		return nil, errors.Wrap(err, "ошибка выполнения действия force")
	}
	logger.WithField("status", rec.Status).Info("процесс переведен принудительно")
	return rec, nil
}

// engine - движок согласования, собранный на транзакции действия
type engine struct {
	store  eventhandler.Provider
	action actionhandler.Provider
}

func (i impl) inTx(requestableType, id string, body func(tx *gorm.DB, requestable models.Requestable, e engine) error) error {
	if requestableType == "" {
		return models.ErrRequestableTypeRequired
	}
	loader, exist := requestableLoaders[requestableType]
	if !exist {
		return models.ErrRequestableTypeUnknown
	}
	return db.DB.Transaction(func(tx *gorm.DB) error {
		requestable, err := loader(tx, id)
		if err != nil {
			return err
		}
		if requestable == nil {
			return models.ErrRequestableNotFound
		}

		events := eventstore.NewInstance(tx)
		flows := flowstore.NewInstance(tx)
		users := usersstore.NewInstance(tx)
		groups := groupstore.NewInstance(tx)
		expander := contributors.NewInstance(users,
			contributors.GroupsFromConfig(config.Conf.Approval.GroupTypes, groups))
		store := eventhandler.NewInstance(events, flows, expander)
		return body(tx, requestable, engine{
			store:  store,
			action: actionhandler.NewInstance(events, flows, expander, store),
		})
	})
}

// уведомления уходят после фиксации транзакции, их сбои действие не откатывают

func (i impl) notifyAwaiting(rec *dbmodels.ApprovalEvent) {
	if i.notifier == nil || rec.IsFinal() {
		return
	}
	go i.notifier.NotifyAwaiting(rec.RequestableType, rec.RequestableID)
}

func (i impl) notifyResolved(rec *dbmodels.ApprovalEvent, code models.PushCode) {
	if i.notifier == nil {
		return
	}
	go i.notifier.NotifyResolved(rec.RequestableType, rec.RequestableID, code)
}
