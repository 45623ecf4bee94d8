package event

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"approval-backend/lib/approval/condition"
	"approval-backend/lib/approval/contributors"
	eventstore "approval-backend/lib/approval/event-store"
	flowstore "approval-backend/lib/approval/flow-store"
	"approval-backend/models"
	dbmodels "approval-backend/models/db"
)

// Provider - запуск процесса согласования по сущности.
// Повторный запуск по той же сущности возвращает уже существующий
// процесс без изменений.
type Provider interface {
	Store(requestable models.Requestable) (rec *dbmodels.ApprovalEvent, created bool, err error)
}

func NewInstance(events eventstore.Provider, flows flowstore.Provider, expander contributors.Provider) Provider {
	return &impl{
		events:   events,
		flows:    flows,
		expander: expander,
	}
}

type impl struct {
	events   eventstore.Provider
	flows    flowstore.Provider
	expander contributors.Provider
}

func (i impl) Store(requestable models.Requestable) (*dbmodels.ApprovalEvent, bool, error) {
	requestableType := requestable.RequestableType()
	requestableID := requestable.RequestableKey()

	existing, err := i.events.GetForUpdate(requestableType, requestableID)
	if err != nil {
		return nil, false, errors.Wrap(err, "ошибка поиска процесса согласования")
	}
	if existing != nil {
		return existing, false, nil
	}

	flow, err := i.flows.GetByKey(requestableType)
	if err != nil {
		return nil, false, errors.Wrap(err, "ошибка поиска маршрута согласования")
	}
	if flow == nil {
		// маршрут не настроен - сущность проходит согласование автоматически
		now := time.Now()
		rec := dbmodels.ApprovalEvent{
			RequestableType: requestableType,
			RequestableID:   requestableID,
			RunMode:         models.ApprovalRunModeParallel,
			Status:          models.ApprovalStatusApproved,
			ApprovedAt:      &now,
		}
		if err = i.events.Create(&rec); err != nil {
			return nil, false, errors.Wrap(err, "ошибка создания процесса согласования")
		}
		log.WithField("requestable_type", requestableType).
			WithField("requestable_id", requestableID).
			Debug("маршрут не настроен, согласование пройдено автоматически")
		return &rec, true, nil
	}

	components := flow.Components
	if valued, ok := requestable.(models.ConditionValued); ok {
		components = condition.Resolve(valued.ApprovalConditionValues(), flow.Conditions, components)
	}

	var target int64
	for _, component := range components {
		target |= component.StepMask()
	}

	rec := dbmodels.ApprovalEvent{
		ApprovalFlowID:  &flow.ID,
		RequestableType: requestableType,
		RequestableID:   requestableID,
		RunMode:         flow.RunMode,
		Status:          models.ApprovalStatusDraft,
		Target:          target,
	}
	if err = i.events.Create(&rec); err != nil {
		return nil, false, errors.Wrap(err, "ошибка создания процесса согласования")
	}

	now := time.Now()
	for _, component := range components {
		userIDs, err := i.expander.Expand(component.Contributors)
		if err != nil {
			return nil, false, errors.Wrap(err, "ошибка разворачивания согласующих")
		}

		eventComponent := dbmodels.ApprovalEventComponent{
			ApprovalEventID: rec.ID,
			Name:            component.Name,
			StepMask:        component.StepMask(),
			Logic:           component.Logic,
			Color:           component.Color,
		}
		if len(userIDs) == 0 {
			// этап без согласующих проходится сразу
			eventComponent.ApprovedAt = &now
			rec.Step |= eventComponent.StepMask
		}
		if err = i.events.CreateComponent(&eventComponent); err != nil {
			return nil, false, errors.Wrap(err, "ошибка создания этапа согласования")
		}
		for _, userID := range userIDs {
			contributor := dbmodels.ApprovalEventContributor{
				ApprovalEventComponentID: eventComponent.ID,
				UserID:                   userID,
			}
			if err = i.events.SaveContributor(&contributor); err != nil {
				return nil, false, errors.Wrap(err, "ошибка создания согласующего")
			}
		}
	}

	if rec.Step == rec.Target {
		rec.Status = models.ApprovalStatusApproved
		rec.ApprovedAt = &now
	}
	if err = i.events.Save(&rec); err != nil {
		return nil, false, errors.Wrap(err, "ошибка сохранения процесса согласования")
	}
	return &rec, true, nil
}
