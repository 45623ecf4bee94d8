package models

import "fmt"

type PushCode string

const (
	PushApprovalAwaiting PushCode = "PushApprovalAwaiting"
	PushApprovalApproved PushCode = "PushApprovalApproved"
	PushApprovalRejected PushCode = "PushApprovalRejected"
	PushApprovalRollback PushCode = "PushApprovalRollback"
)

type pushTpl struct {
	Title string
	Msg   string
}

var pushCodeMap = map[PushCode]pushTpl{
	PushApprovalAwaiting: {Title: "Требуется согласование", Msg: "Этап «%v» по объекту «%v» ожидает вашего решения."},
	PushApprovalApproved: {Title: "Объект согласован", Msg: "Согласование по объекту «%v» завершено."},
	PushApprovalRejected: {Title: "Согласование отклонено", Msg: "Согласование по объекту «%v» отклонено пользователем %v."},
	PushApprovalRollback: {Title: "Согласование перезапущено", Msg: "Процесс согласования по объекту «%v» был сброшен и запущен заново."},
}

type NotificationData struct {
	Code  PushCode
	Title string
	Msg   string
}

func GetPushApprovalAwaiting(componentName, subject string) NotificationData {
	code := PushApprovalAwaiting
	return NotificationData{
		Code:  code,
		Title: pushCodeMap[code].Title,
		Msg:   fmt.Sprintf(pushCodeMap[code].Msg, componentName, subject),
	}
}

func GetPushApprovalApproved(subject string) NotificationData {
	code := PushApprovalApproved
	return NotificationData{
		Code:  code,
		Title: pushCodeMap[code].Title,
		Msg:   fmt.Sprintf(pushCodeMap[code].Msg, subject),
	}
}

func GetPushApprovalRejected(subject, userName string) NotificationData {
	code := PushApprovalRejected
	return NotificationData{
		Code:  code,
		Title: pushCodeMap[code].Title,
		Msg:   fmt.Sprintf(pushCodeMap[code].Msg, subject, userName),
	}
}

func GetPushApprovalRollback(subject string) NotificationData {
	code := PushApprovalRollback
	return NotificationData{
		Code:  code,
		Title: pushCodeMap[code].Title,
		Msg:   fmt.Sprintf(pushCodeMap[code].Msg, subject),
	}
}
