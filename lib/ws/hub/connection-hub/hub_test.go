package connectionhub

import (
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/require"

	wsmodels "approval-backend/models/ws"
)

func newTestHub() *impl {
	return &impl{clients: map[string]clientSession{}}
}

// сессия без пишущей горутины: буфер заполняется и не вычитывается,
// как при медленном или отвалившемся соединении
func newStalledSession() clientSession {
	return clientSession{
		conn:   &websocket.Conn{},
		sendCh: make(chan wsmodels.ServerMessage, 1),
		stop:   func() {},
	}
}

func TestHub(t *testing.T) {
	msg := wsmodels.ServerMessage{ToUserID: "u1", Msg: "тест"}

	t.Run("отправка при заполненном буфере не блокирует", func(t *testing.T) {
		hub := newTestHub()
		hub.clients["u1"] = newStalledSession()

		done := make(chan struct{})
		go func() {
			hub.SendMessage(msg)
			hub.SendMessage(msg)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("отправка заблокировалась на заполненном буфере")
		}
	})

	t.Run("отправка после удаления клиента не паникует", func(t *testing.T) {
		hub := newTestHub()
		hub.clients["u1"] = newStalledSession()
		hub.SendMessage(msg)

		hub.DeleteClient("u1")
		require.NotPanics(t, func() {
			hub.SendMessage(msg)
		})
		require.False(t, hub.IsConnected("u1"))
	})

	t.Run("удаление при заполненном буфере не паникует", func(t *testing.T) {
		hub := newTestHub()
		sess := newStalledSession()
		hub.clients["u1"] = sess
		hub.SendMessage(msg)
		hub.SendMessage(msg)

		require.NotPanics(t, func() {
			hub.DeleteClient("u1")
		})
		// отправитель, уже державший сессию на момент удаления
		require.NotPanics(t, func() {
			select {
			case sess.sendCh <- msg:
			default:
			}
		})
	})

	t.Run("повторное подключение вытесняет старую сессию", func(t *testing.T) {
		hub := newTestHub()
		stopped := false
		hub.clients["u1"] = clientSession{
			conn:   &websocket.Conn{},
			sendCh: make(chan wsmodels.ServerMessage, 1),
			stop:   func() { stopped = true },
		}
		hub.AddClient("u1", &websocket.Conn{})
		require.True(t, stopped)
	})
}
