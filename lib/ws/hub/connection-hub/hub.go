package connectionhub

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	log "github.com/sirupsen/logrus"

	wsmodels "approval-backend/models/ws"
)

// Provider - реестр активных websocket-подключений.
// На пользователя держится одно соединение, новое вытесняет старое.
type Provider interface {
	AddClient(userID string, conn *websocket.Conn)
	DeleteClient(userID string)
	SendMessage(msg wsmodels.ServerMessage)
	SendClose(userID string)
	IsConnected(userID string) bool
}

var Instance Provider

func Init() {
	Instance = &impl{
		clients: map[string]clientSession{},
	}
}

type impl struct {
	mu      sync.Mutex
	clients map[string]clientSession //map[userID]
}

func (i *impl) AddClient(userID string, conn *websocket.Conn) {
	i.mu.Lock()
	defer i.mu.Unlock()
	oldSess, ok := i.clients[userID]
	if ok {
		oldSess.stop()
	}
	i.clients[userID] = newSession(conn)
}

func (i *impl) DeleteClient(userID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	sess, ok := i.clients[userID]
	if !ok {
		return
	}
	delete(i.clients, userID)
	// канал не закрывается: отправители могут держать ссылку на сессию,
	// пишущая горутина завершается через stop
	sess.stop()
}

func (i *impl) SendMessage(msg wsmodels.ServerMessage) {
	i.mu.Lock()
	defer i.mu.Unlock()
	sess, ok := i.clients[msg.ToUserID]
	if !ok {
		return
	}
	// при заполненном буфере сообщение отбрасывается,
	// уведомления не должны блокировать действие
	select {
	case sess.sendCh <- msg:
	default:
		log.WithField("user_id", msg.ToUserID).Warn("буфер ws-сообщений заполнен, сообщение отброшено")
	}
}

func (i *impl) SendClose(userID string) {
	i.mu.Lock()
	sess, ok := i.clients[userID]
	i.mu.Unlock()
	if ok {
		sess.stop()
	}
}

func (i *impl) IsConnected(userID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	sess, ok := i.clients[userID]
	if !ok || sess.conn == nil || sess.conn.Conn == nil {
		return false
	}
	return true
}
