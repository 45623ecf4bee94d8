package flowstore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbmodels "approval-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.ApprovalFlow) (id string, err error)
	GetByID(id string) (rec *dbmodels.ApprovalFlow, err error)
	// GetByKey - поиск маршрута по типу согласуемой сущности через привязку
	GetByKey(requestableType string) (rec *dbmodels.ApprovalFlow, err error)
	List() (list []dbmodels.ApprovalFlow, err error)
	Update(id string, updMap map[string]interface{}) error
	Delete(id string) error
	SaveComponents(flowID string, components []dbmodels.ApprovalComponent) error
	SaveConditions(flowID string, conditions []dbmodels.ApprovalCondition) error
	// ListConditions - правила по убыванию приоритета,
	// при равных приоритетах стабильный порядок по идентификатору
	ListConditions(flowID string) (list []dbmodels.ApprovalCondition, err error)
	SaveBinding(flowID, requestableType string) error
	DeleteBinding(requestableType string) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.ApprovalFlow) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.ApprovalFlow, error) {
	rec := dbmodels.ApprovalFlow{}
	err := i.db.
		Where("id = ?", id).
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("approval_components.step")
		}).
		Preload("Components.Contributors").
		Preload("Conditions", func(db *gorm.DB) *gorm.DB {
			return db.Order("approval_conditions.priority desc, approval_conditions.id")
		}).
		Preload("Bindings").
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

func (i impl) GetByKey(requestableType string) (*dbmodels.ApprovalFlow, error) {
	binding := dbmodels.ApprovalFlowBinding{}
	err := i.db.
		Where("requestable_type = ?", requestableType).
		First(&binding).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return i.GetByID(binding.ApprovalFlowID)
}

func (i impl) List() (list []dbmodels.ApprovalFlow, err error) {
	list = []dbmodels.ApprovalFlow{}
	err = i.db.
		Preload(clause.Associations).
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) Update(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	tx := i.db.
		Model(&dbmodels.ApprovalFlow{}).
		Where("id = ?", id).
		Updates(updMap)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("маршрут согласования не найден")
	}
	return nil
}

func (i impl) Delete(id string) error {
	err := i.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("approval_flow_id = ?", id).Delete(&dbmodels.ApprovalFlowBinding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("approval_flow_id = ?", id).Delete(&dbmodels.ApprovalCondition{}).Error; err != nil {
			return err
		}
		if err := i.deleteComponents(tx, id); err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&dbmodels.ApprovalFlow{}).Error
	})
	return err
}

func (i impl) SaveComponents(flowID string, components []dbmodels.ApprovalComponent) error {
	return i.db.Transaction(func(tx *gorm.DB) error {
		if err := i.deleteComponents(tx, flowID); err != nil {
			return err
		}
		for k := range components {
			components[k].ApprovalFlowID = flowID
			if err := tx.Create(&components[k]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (i impl) deleteComponents(tx *gorm.DB, flowID string) error {
	componentIDs := tx.
		Model(&dbmodels.ApprovalComponent{}).
		Select("id").
		Where("approval_flow_id = ?", flowID)
	if err := tx.Where("approval_component_id IN (?)", componentIDs).Delete(&dbmodels.ApprovalContributor{}).Error; err != nil {
		return err
	}
	return tx.Where("approval_flow_id = ?", flowID).Delete(&dbmodels.ApprovalComponent{}).Error
}

func (i impl) SaveConditions(flowID string, conditions []dbmodels.ApprovalCondition) error {
	return i.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("approval_flow_id = ?", flowID).Delete(&dbmodels.ApprovalCondition{}).Error; err != nil {
			return err
		}
		for k := range conditions {
			conditions[k].ApprovalFlowID = flowID
			if err := tx.Create(&conditions[k]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (i impl) ListConditions(flowID string) (list []dbmodels.ApprovalCondition, err error) {
	list = []dbmodels.ApprovalCondition{}
	err = i.db.
		Where("approval_flow_id = ?", flowID).
		Order("priority desc, id").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) SaveBinding(flowID, requestableType string) error {
	existed := dbmodels.ApprovalFlowBinding{}
	err := i.db.
		Where("requestable_type = ?", requestableType).
		First(&existed).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		rec := dbmodels.ApprovalFlowBinding{
			ApprovalFlowID:  flowID,
			RequestableType: requestableType,
		}
		return i.db.Create(&rec).Error
	}
	return i.db.
		Model(&dbmodels.ApprovalFlowBinding{}).
		Where("id = ?", existed.ID).
		Update("approval_flow_id", flowID).
		Error
}

func (i impl) DeleteBinding(requestableType string) error {
	return i.db.
		Where("requestable_type = ?", requestableType).
		Delete(&dbmodels.ApprovalFlowBinding{}).
		Error
}
