package connectionhub

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	log "github.com/sirupsen/logrus"

	wsmodels "approval-backend/models/ws"
)

type clientSession struct {
	conn *websocket.Conn

	// исходящие сообщения, буфер на одно событие
	sendCh chan wsmodels.ServerMessage
	stop   func()
}

func newSession(conn *websocket.Conn) clientSession {
	ctx, cancelFn := context.WithCancel(context.TODO())
	sess := clientSession{
		stop:   cancelFn,
		conn:   conn,
		sendCh: make(chan wsmodels.ServerMessage, 1),
	}
	go sess.startSend(ctx)
	return sess
}

func (s clientSession) startSend(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.close()
			return
		case msg := <-s.sendCh:
			if err := s.send(msg); err != nil {
				log.WithError(err).Error("ошибка отправки сообщения")
			}
		}
	}
}

func (s clientSession) send(msg wsmodels.ServerMessage) error {
	if s.conn.Conn == nil {
		return nil
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return err
	}
	log.WithField("code", msg.Code).Debug("отправлено ws-сообщение")
	return nil
}

func (s clientSession) close() {
	if s.conn == nil || s.conn.Conn == nil {
		return
	}
	err := s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Millisecond))
	if err != nil {
		log.WithError(err).Error("cant close")
	}
}
