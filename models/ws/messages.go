package wsmodels

import "approval-backend/models"

// ServerMessage - событие согласования, отправляемое пользователю по websocket
type ServerMessage struct {
	ID       string          `json:"id"`
	ToUserID string          `json:"-"`
	Time     string          `json:"time"`
	Code     models.PushCode `json:"code"`
	Title    string          `json:"title"`
	Msg      string          `json:"msg"`
}
