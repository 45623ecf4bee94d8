package action

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"approval-backend/lib/approval/condition"
	"approval-backend/lib/approval/contributors"
	"approval-backend/lib/approval/event"
	eventstore "approval-backend/lib/approval/event-store"
	flowstore "approval-backend/lib/approval/flow-store"
	"approval-backend/models"
	dbmodels "approval-backend/models/db"
)

// Provider - действия над процессом согласования.
// Каждое действие сначала гарантирует существование процесса (запуск
// идемпотентен), затем меняет состояние. Терминальный процесс
// поглощает approve/reject/cancel без изменений и без ошибки.
type Provider interface {
	Approve(requestable models.Requestable, userID string, mask *int64) (rec *dbmodels.ApprovalEvent, err error)
	Reject(requestable models.Requestable, userID string, mask *int64) (rec *dbmodels.ApprovalEvent, err error)
	Cancel(requestable models.Requestable, userID string, mask *int64) (rec *dbmodels.ApprovalEvent, err error)
	Rollback(requestable models.Requestable) (rec *dbmodels.ApprovalEvent, err error)
	Force(requestable models.Requestable, mask *int64, status *models.ApprovalStatus) (rec *dbmodels.ApprovalEvent, err error)
}

func NewInstance(events eventstore.Provider, flows flowstore.Provider, expander contributors.Provider, store event.Provider) Provider {
	return &impl{
		events:   events,
		flows:    flows,
		expander: expander,
		store:    store,
	}
}

type impl struct {
	events   eventstore.Provider
	flows    flowstore.Provider
	expander contributors.Provider
	store    event.Provider
}

func (i impl) Approve(requestable models.Requestable, userID string, mask *int64) (*dbmodels.ApprovalEvent, error) {
	rec, _, err := i.store.Store(requestable)
	if err != nil {
		return nil, err
	}
	if rec.IsFinal() {
		i.logAbsorbed(rec, "approve")
		return rec, nil
	}

	now := time.Now()

	component, err := i.targetComponent(rec, mask, userID)
	if err != nil {
		return nil, err
	}
	if component == nil {
		// непройденных этапов не осталось - закрываем процесс целиком
		rec.Status = models.ApprovalStatusApproved
		rec.Step |= rec.Target
		rec.ApprovedAt = &now
		if err = i.events.Save(rec); err != nil {
			return nil, errors.Wrap(err, "ошибка сохранения процесса согласования")
		}
		return rec, nil
	}

	shouldApprove := true
	hasContributors, err := i.events.HasContributors(component.ID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка проверки согласующих этапа")
	}
	if hasContributors {
		contributor, err := i.events.GetContributorForUpdate(component.ID, userID)
		if err != nil {
			return nil, errors.Wrap(err, "ошибка поиска согласующего")
		}
		if contributor == nil {
			return nil, errors.Wrapf(models.ErrNotContributor, "этап %q, пользователь %s", component.Name, userID)
		}

		contributor.ApprovedAt = &now
		if err = i.events.SaveContributor(contributor); err != nil {
			return nil, errors.Wrap(err, "ошибка сохранения голоса согласующего")
		}

		if component.Logic != models.ComponentLogicOr {
			all, err := i.events.ListContributors(component.ID)
			if err != nil {
				return nil, errors.Wrap(err, "ошибка чтения согласующих этапа")
			}
			for _, c := range all {
				if !c.IsApproved() {
					shouldApprove = false
					break
				}
			}
		}
	}

	if shouldApprove {
		component.ApprovedAt = &now
		if err = i.events.SaveComponent(component); err != nil {
			return nil, errors.Wrap(err, "ошибка сохранения этапа согласования")
		}

		rec.Step |= component.StepMask
		if rec.Step&rec.Target == rec.Target {
			rec.Status = models.ApprovalStatusApproved
			rec.ApprovedAt = &now
		} else {
			rec.Status = models.ApprovalStatusDraft
		}
		if err = i.events.Save(rec); err != nil {
			return nil, errors.Wrap(err, "ошибка сохранения процесса согласования")
		}
	}
	return rec, nil
}

func (i impl) Reject(requestable models.Requestable, userID string, mask *int64) (*dbmodels.ApprovalEvent, error) {
	rec, _, err := i.store.Store(requestable)
	if err != nil {
		return nil, err
	}
	if rec.IsFinal() {
		i.logAbsorbed(rec, "reject")
		return rec, nil
	}

	now := time.Now()

	component, err := i.targetComponent(rec, mask, userID)
	if err != nil {
		return nil, err
	}
	if component == nil {
		rec.Status = models.ApprovalStatusRejected
		rec.RejectedAt = &now
		if err = i.events.Save(rec); err != nil {
			return nil, errors.Wrap(err, "ошибка сохранения процесса согласования")
		}
		return rec, nil
	}

	contributor, err := i.events.GetContributorForUpdate(component.ID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка поиска согласующего")
	}
	if contributor == nil {
		return nil, errors.Wrapf(models.ErrNotContributor, "этап %q, пользователь %s", component.Name, userID)
	}

	contributor.RejectedAt = &now
	if err = i.events.SaveContributor(contributor); err != nil {
		return nil, errors.Wrap(err, "ошибка сохранения голоса согласующего")
	}

	shouldReject := component.Logic == models.ComponentLogicOr
	if !shouldReject {
		// при AND этап отклоняется, только когда отказов строго больше
		// одобрений; равенство оставляет этап открытым
		all, err := i.events.ListContributors(component.ID)
		if err != nil {
			return nil, errors.Wrap(err, "ошибка чтения согласующих этапа")
		}
		approvals, rejections := 0, 0
		for _, c := range all {
			if c.IsApproved() {
				approvals++
			}
			if c.IsRejected() {
				rejections++
			}
		}
		shouldReject = rejections > approvals
	}

	if shouldReject {
		component.RejectedAt = &now
		if err = i.events.SaveComponent(component); err != nil {
			return nil, errors.Wrap(err, "ошибка сохранения этапа согласования")
		}

		rec.Status = models.ApprovalStatusRejected
		rec.RejectedAt = &now
		if err = i.events.Save(rec); err != nil {
			return nil, errors.Wrap(err, "ошибка сохранения процесса согласования")
		}
	}
	return rec, nil
}

func (i impl) Cancel(requestable models.Requestable, userID string, mask *int64) (*dbmodels.ApprovalEvent, error) {
	rec, _, err := i.store.Store(requestable)
	if err != nil {
		return nil, err
	}
	if rec.IsFinal() {
		i.logAbsorbed(rec, "cancel")
		return rec, nil
	}

	now := time.Now()

	component, err := i.targetComponent(rec, mask, userID)
	if err != nil {
		return nil, err
	}
	if component == nil {
		rec.Status = models.ApprovalStatusCancelled
		rec.CancelledAt = &now
		if err = i.events.Save(rec); err != nil {
			return nil, errors.Wrap(err, "ошибка сохранения процесса согласования")
		}
		return rec, nil
	}

	if err = i.events.ResetContributors(component.ID, now); err != nil {
		return nil, errors.Wrap(err, "ошибка сброса голосов согласующих")
	}

	component.CancelledAt = &now
	component.ApprovedAt = nil
	if err = i.events.SaveComponent(component); err != nil {
		return nil, errors.Wrap(err, "ошибка сохранения этапа согласования")
	}

	rec.Status = models.ApprovalStatusRejected
	rec.Step &^= component.StepMask
	rec.CancelledAt = &now
	if err = i.events.Save(rec); err != nil {
		return nil, errors.Wrap(err, "ошибка сохранения процесса согласования")
	}
	return rec, nil
}

func (i impl) Rollback(requestable models.Requestable) (*dbmodels.ApprovalEvent, error) {
	rec, _, err := i.store.Store(requestable)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	components := []dbmodels.ApprovalComponent{}
	if rec.ApprovalFlowID != nil {
		flow, err := i.flows.GetByID(*rec.ApprovalFlowID)
		if err != nil {
			return nil, errors.Wrap(err, "ошибка чтения маршрута согласования")
		}
		if flow != nil {
			components = flow.Components
			if valued, ok := requestable.(models.ConditionValued); ok {
				components = condition.Resolve(valued.ApprovalConditionValues(), flow.Conditions, components)
			}
		}
	}

	var target int64
	for _, component := range components {
		target |= component.StepMask()

		eventComponent, err := i.events.UpsertComponent(rec.ID, component.StepMask(), dbmodels.ApprovalEventComponent{
			Name:       component.Name,
			Logic:      component.Logic,
			Color:      component.Color,
			RollbackAt: &now,
		})
		if err != nil {
			return nil, errors.Wrap(err, "ошибка восстановления этапа согласования")
		}

		userIDs, err := i.expander.Expand(component.Contributors)
		if err != nil {
			return nil, errors.Wrap(err, "ошибка разворачивания согласующих")
		}
		for _, userID := range userIDs {
			if err = i.events.EnsureContributor(eventComponent.ID, userID); err != nil {
				return nil, errors.Wrap(err, "ошибка восстановления согласующего")
			}
		}
		if err = i.events.DeleteContributorsExcept(eventComponent.ID, userIDs); err != nil {
			return nil, errors.Wrap(err, "ошибка синхронизации согласующих")
		}
	}

	rec.Status = models.ApprovalStatusDraft
	rec.Step = 0
	rec.Target = target
	rec.ApprovedAt = nil
	rec.RejectedAt = nil
	rec.CancelledAt = nil
	rec.RollbackAt = &now
	if err = i.events.Save(rec); err != nil {
		return nil, errors.Wrap(err, "ошибка сохранения процесса согласования")
	}
	return rec, nil
}

func (i impl) Force(requestable models.Requestable, mask *int64, status *models.ApprovalStatus) (*dbmodels.ApprovalEvent, error) {
	rec, _, err := i.store.Store(requestable)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	maskValue := rec.Target
	if mask != nil {
		maskValue = *mask
	}
	statusValue := models.ApprovalStatusApproved
	if status != nil {
		statusValue = *status
	}

	rec.Step |= maskValue
	rec.Status = statusValue
	if rec.Step == rec.Target {
		rec.ApprovedAt = &now
		if err = i.events.MarkAllComponentsApproved(rec.ID, now); err != nil {
			return nil, errors.Wrap(err, "ошибка закрытия этапов согласования")
		}
	}
	if err = i.events.MarkComponentsApproved(rec.ID, maskValue, now); err != nil {
		return nil, errors.Wrap(err, "ошибка закрытия этапов согласования")
	}
	if err = i.events.Save(rec); err != nil {
		return nil, errors.Wrap(err, "ошибка сохранения процесса согласования")
	}
	return rec, nil
}

// targetComponent - выбор этапа для действия.
// Явная маска ищет непройденный этап ровно с этой маской; без маски при
// параллельном режиме приоритет у этапа, где пользователь числится
// согласующим, иначе первый непройденный по порядку битов.
func (i impl) targetComponent(rec *dbmodels.ApprovalEvent, mask *int64, userID string) (*dbmodels.ApprovalEventComponent, error) {
	if mask != nil {
		component, err := i.events.FindComponentByMask(rec.ID, *mask)
		if err != nil {
			return nil, errors.Wrap(err, "ошибка поиска этапа согласования")
		}
		return component, nil
	}

	if userID != "" && rec.RunMode == models.ApprovalRunModeParallel {
		component, err := i.events.FirstPendingComponentForUser(rec.ID, userID)
		if err != nil {
			return nil, errors.Wrap(err, "ошибка поиска этапа согласования")
		}
		if component != nil {
			return component, nil
		}
	}

	component, err := i.events.FirstPendingComponent(rec.ID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка поиска этапа согласования")
	}
	return component, nil
}

func (i impl) logAbsorbed(rec *dbmodels.ApprovalEvent, action string) {
	log.WithField("requestable_type", rec.RequestableType).
		WithField("requestable_id", rec.RequestableID).
		WithField("status", rec.Status).
		Debugf("процесс согласования завершен, действие %s проигнорировано", action)
}
