package approvalapimodels

import (
	"time"

	"github.com/pkg/errors"

	"approval-backend/models"
	dbmodels "approval-backend/models/db"
)

type ContributorData struct {
	ContributorType string `json:"contributor_type"` // user или групповой тип
	ContributorID   string `json:"contributor_id"`
}

type ComponentData struct {
	Name         string                `json:"name"`
	Step         int                   `json:"step"`
	Logic        models.ComponentLogic `json:"logic"`
	Color        string                `json:"color"`
	Contributors []ContributorData     `json:"contributors"`
}

type ConditionData struct {
	Field     string                   `json:"field"`
	Operator  models.ConditionOperator `json:"operator"`
	Threshold string                   `json:"threshold"`
	MaxStep   int                      `json:"max_step"`
	Priority  int                      `json:"priority"`
}

type ApprovalFlowData struct {
	Name       string                 `json:"name"`
	RunMode    models.ApprovalRunMode `json:"run_mode"`
	Components []ComponentData        `json:"components"`
	Conditions []ConditionData        `json:"conditions"`
}

func (d ApprovalFlowData) Validate() error {
	if d.Name == "" {
		return errors.New("не указано название маршрута")
	}
	if !d.RunMode.IsValid() {
		return errors.Errorf("недопустимый режим согласования: %v", d.RunMode)
	}
	usedSteps := map[int]bool{}
	for _, component := range d.Components {
		if component.Name == "" {
			return errors.New("не указано название этапа")
		}
		if component.Step < 0 || component.Step > models.MaxComponentStep {
			return errors.Errorf("номер этапа должен быть в диапазоне 0..%d", models.MaxComponentStep)
		}
		if usedSteps[component.Step] {
			return errors.Errorf("номер этапа %d задан дважды", component.Step)
		}
		usedSteps[component.Step] = true
		if !component.Logic.IsValid() {
			return errors.Errorf("недопустимая логика этапа: %v", component.Logic)
		}
	}
	for _, condition := range d.Conditions {
		if condition.Field == "" {
			return errors.New("не указано поле условия")
		}
		if !condition.Operator.IsValid() {
			return errors.Errorf("недопустимый оператор условия: %v", condition.Operator)
		}
		if condition.MaxStep < 0 || condition.MaxStep > models.MaxComponentStep {
			return errors.Errorf("max_step должен быть в диапазоне 0..%d", models.MaxComponentStep)
		}
	}
	return nil
}

type BindingData struct {
	RequestableType string `json:"requestable_type"`
}

func (d BindingData) Validate() error {
	if d.RequestableType == "" {
		return errors.New("не указан тип согласуемой сущности")
	}
	return nil
}

type ContributorView struct {
	ContributorType string `json:"contributor_type"`
	ContributorID   string `json:"contributor_id"`
}

type ComponentView struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Step         int                   `json:"step"`
	StepMask     int64                 `json:"step_mask"`
	Logic        models.ComponentLogic `json:"logic"`
	Color        string                `json:"color"`
	Contributors []ContributorView     `json:"contributors"`
}

type ConditionView struct {
	ID        string                   `json:"id"`
	Field     string                   `json:"field"`
	Operator  models.ConditionOperator `json:"operator"`
	Threshold string                   `json:"threshold"`
	MaxStep   int                      `json:"max_step"`
	Priority  int                      `json:"priority"`
}

type ApprovalFlowView struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	RunMode     models.ApprovalRunMode `json:"run_mode"`
	RunModeName string                 `json:"run_mode_name"`
	Components  []ComponentView        `json:"components"`
	Conditions  []ConditionView        `json:"conditions"`
	Bindings    []string               `json:"bindings"`
}

func ApprovalFlowConvert(rec dbmodels.ApprovalFlow) ApprovalFlowView {
	view := ApprovalFlowView{
		ID:          rec.ID,
		Name:        rec.Name,
		RunMode:     rec.RunMode,
		RunModeName: rec.RunMode.ToHuman(),
		Components:  make([]ComponentView, 0, len(rec.Components)),
		Conditions:  make([]ConditionView, 0, len(rec.Conditions)),
		Bindings:    make([]string, 0, len(rec.Bindings)),
	}
	for _, component := range rec.Components {
		componentView := ComponentView{
			ID:           component.ID,
			Name:         component.Name,
			Step:         component.Step,
			StepMask:     component.StepMask(),
			Logic:        component.Logic,
			Color:        component.Color,
			Contributors: make([]ContributorView, 0, len(component.Contributors)),
		}
		for _, contributor := range component.Contributors {
			componentView.Contributors = append(componentView.Contributors, ContributorView{
				ContributorType: contributor.ContributorType,
				ContributorID:   contributor.ContributorID,
			})
		}
		view.Components = append(view.Components, componentView)
	}
	for _, condition := range rec.Conditions {
		view.Conditions = append(view.Conditions, ConditionView{
			ID:        condition.ID,
			Field:     condition.Field,
			Operator:  condition.Operator,
			Threshold: condition.Threshold,
			MaxStep:   condition.MaxStep,
			Priority:  condition.Priority,
		})
	}
	for _, binding := range rec.Bindings {
		view.Bindings = append(view.Bindings, binding.RequestableType)
	}
	return view
}

type EventContributorView struct {
	UserID      string     `json:"user_id"`
	UserName    string     `json:"user_name"`
	ApprovedAt  *time.Time `json:"approved_at"`
	RejectedAt  *time.Time `json:"rejected_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
}

type EventComponentView struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	StepMask     int64                  `json:"step_mask"`
	Logic        models.ComponentLogic  `json:"logic"`
	Color        string                 `json:"color"`
	Passed       bool                   `json:"passed"`
	ApprovedAt   *time.Time             `json:"approved_at"`
	RejectedAt   *time.Time             `json:"rejected_at"`
	CancelledAt  *time.Time             `json:"cancelled_at"`
	RollbackAt   *time.Time             `json:"rollback_at"`
	Contributors []EventContributorView `json:"contributors"`
}

type ApprovalEventView struct {
	ID              string                 `json:"id"`
	RequestableType string                 `json:"requestable_type"`
	RequestableID   string                 `json:"requestable_id"`
	RunMode         models.ApprovalRunMode `json:"run_mode"`
	Status          models.ApprovalStatus  `json:"status"`
	StatusName      string                 `json:"status_name"`
	Step            int64                  `json:"step"`
	Target          int64                  `json:"target"`
	ApprovedAt      *time.Time             `json:"approved_at"`
	RejectedAt      *time.Time             `json:"rejected_at"`
	CancelledAt     *time.Time             `json:"cancelled_at"`
	RollbackAt      *time.Time             `json:"rollback_at"`
	Components      []EventComponentView   `json:"components"`
}

func ApprovalEventConvert(rec dbmodels.ApprovalEvent) ApprovalEventView {
	view := ApprovalEventView{
		ID:              rec.ID,
		RequestableType: rec.RequestableType,
		RequestableID:   rec.RequestableID,
		RunMode:         rec.RunMode,
		Status:          rec.Status,
		StatusName:      rec.Status.ToHuman(),
		Step:            rec.Step,
		Target:          rec.Target,
		ApprovedAt:      rec.ApprovedAt,
		RejectedAt:      rec.RejectedAt,
		CancelledAt:     rec.CancelledAt,
		RollbackAt:      rec.RollbackAt,
		Components:      make([]EventComponentView, 0, len(rec.Components)),
	}
	for _, component := range rec.Components {
		componentView := EventComponentView{
			ID:           component.ID,
			Name:         component.Name,
			StepMask:     component.StepMask,
			Logic:        component.Logic,
			Color:        component.Color,
			Passed:       rec.Step&component.StepMask != 0,
			ApprovedAt:   component.ApprovedAt,
			RejectedAt:   component.RejectedAt,
			CancelledAt:  component.CancelledAt,
			RollbackAt:   component.RollbackAt,
			Contributors: make([]EventContributorView, 0, len(component.Contributors)),
		}
		for _, contributor := range component.Contributors {
			contributorView := EventContributorView{
				UserID:      contributor.UserID,
				ApprovedAt:  contributor.ApprovedAt,
				RejectedAt:  contributor.RejectedAt,
				CancelledAt: contributor.CancelledAt,
			}
			if contributor.User != nil {
				contributorView.UserName = contributor.User.GetDisplayName()
			}
			componentView.Contributors = append(componentView.Contributors, contributorView)
		}
		view.Components = append(view.Components, componentView)
	}
	return view
}

type ActionData struct {
	Mask *int64 `json:"mask"` // необязательная маска этапа
}

type ForceData struct {
	Mask   *int64                 `json:"mask"`
	Status *models.ApprovalStatus `json:"status"`
}

func (d ForceData) Validate() error {
	if d.Status != nil && !d.Status.IsValid() {
		return errors.Errorf("недопустимый статус: %v", *d.Status)
	}
	return nil
}

type ApprovalGroupData struct {
	Name    string   `json:"name"`
	UserIDs []string `json:"user_ids"`
}

func (d ApprovalGroupData) Validate() error {
	if d.Name == "" {
		return errors.New("не указано название группы")
	}
	return nil
}

type GroupContributorView struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

type ApprovalGroupView struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Contributors []GroupContributorView `json:"contributors"`
}

func ApprovalGroupConvert(rec dbmodels.ApprovalGroup) ApprovalGroupView {
	view := ApprovalGroupView{
		ID:           rec.ID,
		Name:         rec.Name,
		Contributors: make([]GroupContributorView, 0, len(rec.Contributors)),
	}
	for _, contributor := range rec.Contributors {
		contributorView := GroupContributorView{
			UserID: contributor.UserID,
		}
		if contributor.User != nil {
			contributorView.UserName = contributor.User.GetDisplayName()
		}
		view.Contributors = append(view.Contributors, contributorView)
	}
	return view
}
