package flowhandler

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"approval-backend/db"
	flowstore "approval-backend/lib/approval/flow-store"
	approvalapimodels "approval-backend/models/api/approval"
	dbmodels "approval-backend/models/db"
)

type Provider interface {
	Create(data approvalapimodels.ApprovalFlowData) (id string, err error)
	GetByID(id string) (item approvalapimodels.ApprovalFlowView, err error)
	List() (list []approvalapimodels.ApprovalFlowView, err error)
	Update(id string, data approvalapimodels.ApprovalFlowData) error
	Delete(id string) error
	Bind(id, requestableType string) error
	Unbind(requestableType string) error
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		store: flowstore.NewInstance(db.DB),
	}
}

type impl struct {
	store flowstore.Provider
}

func (i impl) Create(data approvalapimodels.ApprovalFlowData) (id string, err error) {
	if err = data.Validate(); err != nil {
		return "", err
	}
	rec := dbmodels.ApprovalFlow{
		Name:    data.Name,
		RunMode: data.RunMode,
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		store := flowstore.NewInstance(tx)
		id, err = store.Create(rec)
		if err != nil {
			return err
		}
		if err = store.SaveComponents(id, componentsConvert(data.Components)); err != nil {
			return err
		}
		return store.SaveConditions(id, conditionsConvert(data.Conditions))
	})
	if err != nil {
		log.WithError(err).Error("ошибка создания маршрута согласования")
		return "", err
	}
	log.WithField("rec_id", id).Info("создан маршрут согласования")
	return id, nil
}

func (i impl) GetByID(id string) (approvalapimodels.ApprovalFlowView, error) {
	rec, err := i.getRec(id)
	if err != nil {
		return approvalapimodels.ApprovalFlowView{}, err
	}
	return approvalapimodels.ApprovalFlowConvert(*rec), nil
}

func (i impl) List() ([]approvalapimodels.ApprovalFlowView, error) {
	recList, err := i.store.List()
	if err != nil {
		log.WithError(err).Error("ошибка получения списка маршрутов")
		return nil, err
	}
	result := make([]approvalapimodels.ApprovalFlowView, 0, len(recList))
	for _, rec := range recList {
		result = append(result, approvalapimodels.ApprovalFlowConvert(rec))
	}
	return result, nil
}

func (i impl) Update(id string, data approvalapimodels.ApprovalFlowData) error {
	logger := log.WithField("rec_id", id)
	if err := data.Validate(); err != nil {
		return err
	}
	if _, err := i.getRec(id); err != nil {
		return err
	}
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		store := flowstore.NewInstance(tx)
		updMap := map[string]interface{}{
			"name":     data.Name,
			"run_mode": data.RunMode,
		}
		if err := store.Update(id, updMap); err != nil {
			return err
		}
		if err := store.SaveComponents(id, componentsConvert(data.Components)); err != nil {
			return err
		}
		return store.SaveConditions(id, conditionsConvert(data.Conditions))
	})
	if err != nil {
		logger.WithError(err).Error("ошибка обновления маршрута")
		return err
	}
	logger.Info("обновлен маршрут согласования")
	return nil
}

func (i impl) Delete(id string) error {
	logger := log.WithField("rec_id", id)
	if _, err := i.getRec(id); err != nil {
		return err
	}
	if err := i.store.Delete(id); err != nil {
		logger.WithError(err).Error("ошибка удаления маршрута")
		return err
	}
	logger.Info("удален маршрут согласования")
	return nil
}

func (i impl) Bind(id, requestableType string) error {
	logger := log.
		WithField("rec_id", id).
		WithField("requestable_type", requestableType)
	if _, err := i.getRec(id); err != nil {
		return err
	}
	if err := i.store.SaveBinding(id, requestableType); err != nil {
		logger.WithError(err).Error("ошибка привязки маршрута")
		return err
	}
	logger.Info("маршрут привязан к типу сущности")
	return nil
}

func (i impl) Unbind(requestableType string) error {
	logger := log.WithField("requestable_type", requestableType)
	if err := i.store.DeleteBinding(requestableType); err != nil {
		logger.WithError(err).Error("ошибка отвязки маршрута")
		return err
	}
	logger.Info("маршрут отвязан от типа сущности")
	return nil
}

func (i impl) getRec(id string) (*dbmodels.ApprovalFlow, error) {
	rec, err := i.store.GetByID(id)
	if err != nil {
		log.WithField("rec_id", id).WithError(err).Error("ошибка получения маршрута")
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("маршрут согласования не найден")
	}
	return rec, nil
}

func componentsConvert(list []approvalapimodels.ComponentData) []dbmodels.ApprovalComponent {
	result := make([]dbmodels.ApprovalComponent, 0, len(list))
	for _, data := range list {
		component := dbmodels.ApprovalComponent{
			Name:  data.Name,
			Step:  data.Step,
			Logic: data.Logic,
			Color: data.Color,
		}
		for _, contributor := range data.Contributors {
			component.Contributors = append(component.Contributors, dbmodels.ApprovalContributor{
				ContributorType: contributor.ContributorType,
				ContributorID:   contributor.ContributorID,
			})
		}
		result = append(result, component)
	}
	return result
}

func conditionsConvert(list []approvalapimodels.ConditionData) []dbmodels.ApprovalCondition {
	result := make([]dbmodels.ApprovalCondition, 0, len(list))
	for _, data := range list {
		result = append(result, dbmodels.ApprovalCondition{
			Field:     data.Field,
			Operator:  data.Operator,
			Threshold: data.Threshold,
			MaxStep:   data.MaxStep,
			Priority:  data.Priority,
		})
	}
	return result
}
