package requeststore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	dbmodels "approval-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.ApprovalRequest) (id string, err error)
	GetByID(id string) (rec *dbmodels.ApprovalRequest, err error)
	List(authorID string) (list []dbmodels.ApprovalRequest, err error)
	Update(id string, updMap map[string]interface{}) error
	Delete(id string) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.ApprovalRequest) (string, error) {
	err := i.db.
		Omit("Author").
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.ApprovalRequest, error) {
	rec := dbmodels.ApprovalRequest{}
	err := i.db.
		Where("id = ?", id).
		Preload("Author").
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

func (i impl) List(authorID string) (list []dbmodels.ApprovalRequest, err error) {
	list = []dbmodels.ApprovalRequest{}
	tx := i.db.
		Preload("Author").
		Order("created_at desc")
	if authorID != "" {
		tx = tx.Where("author_id = ?", authorID)
	}
	err = tx.Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) Update(id string, updMap map[string]interface{}) error {
	tx := i.db.
		Model(&dbmodels.ApprovalRequest{}).
		Where("id = ?", id).
		Updates(updMap)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("заявка не найдена")
	}
	return nil
}

func (i impl) Delete(id string) error {
	return i.db.
		Where("id = ?", id).
		Delete(&dbmodels.ApprovalRequest{}).
		Error
}
