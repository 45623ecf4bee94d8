package dbmodels

// ApprovalGroup - встроенная группа согласующих.
// Регистрируется в реестре групповых типов под тегом models.ContributorTypeGroup.
type ApprovalGroup struct {
	BaseModel
	AuditModel
	Name         string                     `gorm:"type:varchar(255)"`
	Contributors []ApprovalGroupContributor `gorm:"foreignKey:ApprovalGroupID"`
}

type ApprovalGroupContributor struct {
	BaseModel
	ApprovalGroupID string `gorm:"type:varchar(36);index"`
	UserID          string `gorm:"type:varchar(36)"`
	User            *User  `gorm:"foreignKey:UserID"`
}
