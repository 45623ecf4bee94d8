package groupstore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	dbmodels "approval-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.ApprovalGroup) (id string, err error)
	GetByID(id string) (rec *dbmodels.ApprovalGroup, err error)
	FindByName(name string) (rec *dbmodels.ApprovalGroup, err error)
	List() (list []dbmodels.ApprovalGroup, err error)
	Update(id string, updMap map[string]interface{}) error
	Delete(id string) error
	SaveContributors(groupID string, userIDs []string) error
	// ApproverIDs - перечисление согласующих группы,
	// способность группового типа из реестра
	ApproverIDs(groupID string) (userIDs []string, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.ApprovalGroup) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.ApprovalGroup, error) {
	rec := dbmodels.ApprovalGroup{}
	err := i.db.
		Where("id = ?", id).
		Preload("Contributors.User").
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

func (i impl) FindByName(name string) (*dbmodels.ApprovalGroup, error) {
	rec := dbmodels.ApprovalGroup{}
	err := i.db.
		Where("name = ?", name).
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

func (i impl) List() (list []dbmodels.ApprovalGroup, err error) {
	list = []dbmodels.ApprovalGroup{}
	err = i.db.
		Preload("Contributors.User").
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
		Model(&dbmodels.ApprovalGroup{}).
		Where("id = ?", id).
		Updates(updMap)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("группа согласующих не найдена")
	}
	return nil
}

func (i impl) Delete(id string) error {
	return i.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("approval_group_id = ?", id).Delete(&dbmodels.ApprovalGroupContributor{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&dbmodels.ApprovalGroup{}).Error
	})
}

func (i impl) SaveContributors(groupID string, userIDs []string) error {
	return i.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("approval_group_id = ?", groupID).Delete(&dbmodels.ApprovalGroupContributor{}).Error; err != nil {
			return err
		}
		for _, userID := range userIDs {
			rec := dbmodels.ApprovalGroupContributor{
				ApprovalGroupID: groupID,
				UserID:          userID,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (i impl) ApproverIDs(groupID string) (userIDs []string, err error) {
	userIDs = []string{}
	err = i.db.
		Model(&dbmodels.ApprovalGroupContributor{}).
		Where("approval_group_id = ?", groupID).
		Order("created_at").
		Pluck("user_id", &userIDs).
		Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}
