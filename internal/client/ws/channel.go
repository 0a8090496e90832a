// Package ws реализует клиентскую сторону канала синхронизации доски:
// постоянное websocket-соединение с relay-сервером, автоматический
// реконнект с фиксированной задержкой и контроль single-writer роли
// перед отправкой мутирующих операций.
package ws

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tutorlab/liveboard/pkg/api"
)

// Role роль локального участника в сессии
type Role string

const (
	// RoleAuthor пишущий участник (преподаватель)
	RoleAuthor Role = "author"
	// RoleViewer читающий участник (ученик)
	RoleViewer Role = "viewer"
)

// State состояние соединения канала
type State string

const (
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
)

const (
	// retryDelay фиксированная задержка между попытками реконнекта.
	// Переподключение повторяется до тех пор, пока закрытие не окажется
	// намеренным завершением сессии.
	retryDelay = 3 * time.Second

	// writeWait максимальное время на запись одного сообщения
	writeWait = 10 * time.Second
	// pongWait время ожидания pong от сервера; просроченный pong
	// закрывает соединение и запускает реконнект
	pongWait = 60 * time.Second
	// pingPeriod период отправки ping
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer размер очереди исходящих сообщений
	sendBuffer = 256
)

// Channel представляет канал синхронизации одного участника одной сессии.
//
// Отправка fire-and-forget: локальное состояние автора применяется
// немедленно и не ждет подтверждения сети. Потеря соединения
// приостанавливает синхронизацию, но не трогает локальное состояние;
// путь восстановления зрителей — снапшот автора по peer_joined.
type Channel struct {
	logger    *slog.Logger
	role      Role
	url       string
	onMessage func(api.Message)
	onState   func(State)

	sendC  chan api.Message
	closeC chan struct{}

	mu        sync.Mutex
	conn      *websocket.Conn
	state     State
	closeOnce sync.Once
}

// Config параметры канала синхронизации
type Config struct {
	// ServerURL базовый адрес relay-сервера (http:// или ws://)
	ServerURL string
	// SessionID идентификатор сессии урока (opaque string)
	SessionID string
	// ClientID идентификатор участника
	ClientID string
	// Role роль участника; проверяется локально перед каждой
	// мутирующей отправкой и принудительно на сервере
	Role Role
	// OnMessage вызывается для каждого входящего сообщения
	OnMessage func(api.Message)
	// OnState вызывается при смене состояния соединения
	// (индикатор статуса подключения в UI)
	OnState func(State)
}

// New создает канал синхронизации. Соединение не устанавливается
// до вызова Run.
func New(logger *slog.Logger, cfg Config) (*Channel, error) {
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	q := u.Query()
	q.Set("session", cfg.SessionID)
	q.Set("client_id", cfg.ClientID)
	q.Set("role", string(cfg.Role))
	u.RawQuery = q.Encode()

	return &Channel{
		logger:    logger,
		role:      cfg.Role,
		url:       u.String(),
		onMessage: cfg.OnMessage,
		onState:   cfg.OnState,
		sendC:     make(chan api.Message, sendBuffer),
		closeC:    make(chan struct{}),
		state:     StateConnecting,
	}, nil
}

// State возвращает текущее состояние соединения
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send ставит сообщение в очередь отправки (fire-and-forget).
// Мутирующие операции доступны только автору: зритель получает
// ErrNotAuthor и сообщение не уходит в сеть.
func (c *Channel) Send(msg api.Message) error {
	if msg.Kind.Mutating() && c.role != RoleAuthor {
		return ErrNotAuthor
	}

	select {
	case <-c.closeC:
		return ErrChannelClosed
	default:
	}

	select {
	case c.sendC <- msg:
		return nil
	default:
		// Очередь переполнена: соединение давно потеряно либо сервер
		// не читает. Сообщение теряется, восстановление — через снапшот.
		c.logger.Warn("Send buffer full, dropping message", "kind", msg.Kind)
		return ErrSendBufferFull
	}
}

// Close намеренно завершает канал: реконнекты прекращаются,
// соединение закрывается нормальным close-кодом. Именно намеренность
// закрытия отличает завершение сессии от обычного обрыва сети.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.closeC)

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		if conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session_end"),
				time.Now().Add(writeWait))
			_ = conn.Close()
		}

		c.setState(StateClosed)
	})
}

// Run держит соединение с relay-сервером до намеренного закрытия.
// Обрыв транспорта приводит к реконнекту с фиксированной задержкой;
// Run возвращается только по Close или отмене контекста.
func (c *Channel) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.setState(StateClosed)
			return
		case <-c.closeC:
			return
		default:
		}

		c.setState(StateConnecting)

		dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
		conn, resp, err := dialer.DialContext(ctx, c.url, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			c.logger.Warn("Dial failed, will retry", "error", err, "retry_in", retryDelay)
			if !c.sleep(ctx) {
				return
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.setState(StateOpen)
		c.logger.Info("Sync channel connected", "url", c.url)

		// Авторская сторона объявляет доску активной на каждом
		// (пере)подключении
		if c.role == RoleAuthor {
			_ = c.Send(api.Message{Kind: api.KindOpen})
		}

		intentional := c.serve(ctx, conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		if intentional {
			c.Close()
			return
		}

		c.logger.Warn("Sync channel lost, reconnecting", "retry_in", retryDelay)
		if !c.sleep(ctx) {
			return
		}
	}
}

// serve обслуживает одно установленное соединение.
// Возвращает true, если соединение завершилось намеренно
// (нормальный close-код от сервера или локальный Close).
func (c *Channel) serve(ctx context.Context, conn *websocket.Conn) bool {
	done := make(chan struct{})
	defer close(done)

	go c.writePump(conn, done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg api.Message
		if err := conn.ReadJSON(&msg); err != nil {
			_ = conn.Close()

			select {
			case <-c.closeC:
				return true
			default:
			}

			// Нормальное закрытие от сервера — конец сессии,
			// не сетевой сбой
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return true
			}

			c.logger.Warn("Read error", "error", err)
			return false
		}

		if c.onMessage != nil {
			c.onMessage(msg)
		}
	}
}

// writePump пишет исходящие сообщения и поддерживает ping/pong.
// Завершается вместе с соединением.
func (c *Channel) writePump(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.sendC:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				c.logger.Warn("Write error", "kind", msg.Kind, "error", err)
				_ = conn.Close()
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}

		case <-done:
			return
		}
	}
}

// sleep ждет retryDelay; false означает, что ожидание прервано
// закрытием канала или контекста
func (c *Channel) sleep(ctx context.Context) bool {
	timer := time.NewTimer(retryDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		c.setState(StateClosed)
		return false
	case <-c.closeC:
		return false
	}
}

// setState обновляет состояние и уведомляет подписчика
func (c *Channel) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()

	if changed && c.onState != nil {
		c.onState(s)
	}
}
