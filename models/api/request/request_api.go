package requestapimodels

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	approvalapimodels "approval-backend/models/api/approval"
	dbmodels "approval-backend/models/db"
)

type ApprovalRequestData struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

func (d ApprovalRequestData) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("не указано название заявки")
	}
	if d.Amount < 0 {
		return errors.New("сумма не может быть отрицательной")
	}
	return nil
}

type ApprovalRequestView struct {
	ID          string                               `json:"id"`
	AuthorID    string                               `json:"author_id"`
	AuthorName  string                               `json:"author_name"`
	Title       string                               `json:"title"`
	Description string                               `json:"description"`
	Amount      float64                              `json:"amount"`
	CreatedAt   time.Time                            `json:"created_at"`
	Approval    *approvalapimodels.ApprovalEventView `json:"approval,omitempty"`
}

func ApprovalRequestConvert(rec dbmodels.ApprovalRequest) ApprovalRequestView {
	view := ApprovalRequestView{
		ID:          rec.ID,
		AuthorID:    rec.AuthorID,
		Title:       rec.Title,
		Description: rec.Description,
		Amount:      rec.Amount,
		CreatedAt:   rec.CreatedAt,
	}
	if rec.Author != nil {
		view.AuthorName = rec.Author.GetDisplayName()
	}
	return view
}
