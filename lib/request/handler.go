package requesthandler

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"approval-backend/db"
	approvalhandler "approval-backend/lib/approval"
	requeststore "approval-backend/lib/request/store"
	"approval-backend/models"
	approvalapimodels "approval-backend/models/api/approval"
	requestapimodels "approval-backend/models/api/request"
	dbmodels "approval-backend/models/db"
)

type Provider interface {
	Create(userID string, data requestapimodels.ApprovalRequestData) (id string, err error)
	GetByID(id string) (item requestapimodels.ApprovalRequestView, err error)
	List(authorID string) (list []requestapimodels.ApprovalRequestView, err error)
	Update(id, userID string, data requestapimodels.ApprovalRequestData) error
	Delete(id, userID string, isAdmin bool) error
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		store:    requeststore.NewInstance(db.DB),
		approval: approvalhandler.Instance,
	}
	approvalhandler.RegisterRequestable(dbmodels.RequestableTypeApprovalRequest, loadRequestable)
}

func loadRequestable(tx *gorm.DB, id string) (models.Requestable, error) {
	rec, err := requeststore.NewInstance(tx).GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return rec, nil
}

type impl struct {
	store    requeststore.Provider
	approval approvalhandler.Provider
}

func (i impl) Create(userID string, data requestapimodels.ApprovalRequestData) (id string, err error) {
	logger := log.WithField("user_id", userID)
	if err = data.Validate(); err != nil {
		return "", err
	}
	rec := dbmodels.ApprovalRequest{
		AuthorID:    userID,
		Title:       data.Title,
		Description: data.Description,
		Amount:      data.Amount,
	}
	id, err = i.store.Create(rec)
	if err != nil {
		logger.WithError(err).Error("Ошибка создания заявки")
		return "", err
	}
	// процесс согласования запускается сразу при создании
	if _, err = i.approval.Store(dbmodels.RequestableTypeApprovalRequest, id); err != nil {
		return "", err
	}
	logger.WithField("rec_id", id).Info("Создана заявка")
	return id, nil
}

func (i impl) GetByID(id string) (requestapimodels.ApprovalRequestView, error) {
	rec, err := i.getRec(id)
	if err != nil {
		return requestapimodels.ApprovalRequestView{}, err
	}
	view := requestapimodels.ApprovalRequestConvert(*rec)
	event, err := i.approval.Get(dbmodels.RequestableTypeApprovalRequest, id)
	if err != nil {
		return requestapimodels.ApprovalRequestView{}, err
	}
	if event != nil {
		eventView := approvalapimodels.ApprovalEventConvert(*event)
		view.Approval = &eventView
	}
	return view, nil
}

func (i impl) List(authorID string) ([]requestapimodels.ApprovalRequestView, error) {
	recList, err := i.store.List(authorID)
	if err != nil {
		log.WithError(err).Error("ошибка получения списка заявок")
		return nil, err
	}
	result := make([]requestapimodels.ApprovalRequestView, 0, len(recList))
	for _, rec := range recList {
		result = append(result, requestapimodels.ApprovalRequestConvert(rec))
	}
	return result, nil
}

func (i impl) Update(id, userID string, data requestapimodels.ApprovalRequestData) error {
	logger := log.
		WithField("rec_id", id).
		WithField("user_id", userID)
	if err := data.Validate(); err != nil {
		return err
	}
	rec, err := i.getRec(id)
	if err != nil {
		return err
	}
	if rec.AuthorID != userID {
		return errors.New("редактировать заявку может только автор")
	}
	event, err := i.approval.Get(dbmodels.RequestableTypeApprovalRequest, id)
	if err != nil {
		return err
	}
	if event != nil && event.IsApproved() {
		return errors.New("согласованная заявка не подлежит редактированию")
	}
	updMap := map[string]interface{}{
		"title":       data.Title,
		"description": data.Description,
		"amount":      data.Amount,
	}
	if err = i.store.Update(id, updMap); err != nil {
		logger.WithError(err).Error("ошибка обновления заявки")
		return err
	}
	// правка данных меняет условия маршрута, процесс собирается заново
	if event != nil && event.ApprovalFlowID != nil {
		if _, err = i.approval.Rollback(dbmodels.RequestableTypeApprovalRequest, id); err != nil {
			return err
		}
	}
	logger.Info("обновлена заявка")
	return nil
}

func (i impl) Delete(id, userID string, isAdmin bool) error {
	logger := log.
		WithField("rec_id", id).
		WithField("user_id", userID)
	rec, err := i.getRec(id)
	if err != nil {
		return err
	}
	if rec.AuthorID != userID && !isAdmin {
		return errors.New("удалить заявку может только автор")
	}
	if err = i.store.Delete(id); err != nil {
		logger.WithError(err).Error("ошибка удаления заявки")
		return err
	}
	logger.Info("удалена заявка")
	return nil
}

func (i impl) getRec(id string) (*dbmodels.ApprovalRequest, error) {
	rec, err := i.store.GetByID(id)
	if err != nil {
		log.WithField("rec_id", id).WithError(err).Error("ошибка получения заявки")
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("заявка не найдена")
	}
	return rec, nil
}
