package approvalnotify

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"approval-backend/config"
	"approval-backend/db"
	eventstore "approval-backend/lib/approval/event-store"
	"approval-backend/lib/smtp"
	connectionhub "approval-backend/lib/ws/hub/connection-hub"
	"approval-backend/models"
	dbmodels "approval-backend/models/db"
	wsmodels "approval-backend/models/ws"
)

// Provider - уведомления участников согласования.
// Сбои доставки только логируются: уведомление не должно влиять
// на результат действия.
type Provider interface {
	NotifyAwaiting(requestableType, requestableID string)
	NotifyResolved(requestableType, requestableID string, code models.PushCode)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		events: eventstore.NewInstance(db.DB),
		hub:    connectionhub.Instance,
	}
}

type impl struct {
	events eventstore.Provider
	hub    connectionhub.Provider
}

func (i impl) NotifyAwaiting(requestableType, requestableID string) {
	logger := log.
		WithField("requestable_type", requestableType).
		WithField("requestable_id", requestableID)
	rec, err := i.events.GetByRequestable(requestableType, requestableID)
	if err != nil {
		logger.WithError(err).Error("ошибка чтения процесса для уведомления")
		return
	}
	if rec == nil || rec.IsFinal() {
		return
	}
	component := rec.CurrentComponent()
	if component == nil {
		return
	}
	subject := subjectName(rec)
	data := models.GetPushApprovalAwaiting(component.Name, subject)
	for _, contributor := range component.Contributors {
		if contributor.IsApproved() || contributor.IsRejected() {
			continue
		}
		i.deliver(contributor, data)
	}
}

func (i impl) NotifyResolved(requestableType, requestableID string, code models.PushCode) {
	logger := log.
		WithField("requestable_type", requestableType).
		WithField("requestable_id", requestableID)
	rec, err := i.events.GetByRequestable(requestableType, requestableID)
	if err != nil {
		logger.WithError(err).Error("ошибка чтения процесса для уведомления")
		return
	}
	if rec == nil {
		return
	}
	subject := subjectName(rec)

	var data models.NotificationData
	switch code {
	case models.PushApprovalApproved:
		data = models.GetPushApprovalApproved(subject)
	case models.PushApprovalRejected:
		data = models.GetPushApprovalRejected(subject, rejectedByName(rec))
	case models.PushApprovalRollback:
		data = models.GetPushApprovalRollback(subject)
	default:
		return
	}

	seen := map[string]bool{}
	for _, component := range rec.Components {
		for _, contributor := range component.Contributors {
			if seen[contributor.UserID] {
				continue
			}
			seen[contributor.UserID] = true
			i.deliver(contributor, data)
		}
	}
}

func (i impl) deliver(contributor dbmodels.ApprovalEventContributor, data models.NotificationData) {
	if i.hub != nil {
		i.hub.SendMessage(wsmodels.ServerMessage{
			ID:       uuid.NewString(),
			ToUserID: contributor.UserID,
			Time:     time.Now().Format("02.01.2006 15:04:05"),
			Code:     data.Code,
			Title:    data.Title,
			Msg:      data.Msg,
		})
	}
	if config.Conf.Approval.NotifyByEmail == nil || !*config.Conf.Approval.NotifyByEmail {
		return
	}
	if contributor.User == nil || contributor.User.Email == "" {
		return
	}
	if smtp.Instance == nil {
		return
	}
	if err := smtp.Instance.SendEMail(contributor.User.Email, data.Title, data.Msg); err != nil {
		log.WithError(err).
			WithField("user_id", contributor.UserID).
			Error("ошибка отправки письма участнику согласования")
	}
}

func subjectName(rec *dbmodels.ApprovalEvent) string {
	return fmt.Sprintf("%s №%s", rec.RequestableType, rec.RequestableID)
}

func rejectedByName(rec *dbmodels.ApprovalEvent) string {
	for _, component := range rec.Components {
		if !component.IsRejected() {
			continue
		}
		for _, contributor := range component.Contributors {
			if contributor.IsRejected() && contributor.User != nil {
				return contributor.User.GetDisplayName()
			}
		}
	}
	return "системой"
}
