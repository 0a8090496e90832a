package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait максимальное время на запись одного сообщения
	writeWait = 10 * time.Second
	// pongWait время ожидания pong от участника; просроченный pong
	// закрывает соединение и запускает обычный путь реконнекта
	pongWait = 60 * time.Second
	// pingPeriod период отправки ping; должен быть меньше pongWait
	pingPeriod = (pongWait * 9) / 10
	// sendBuffer размер буфера исходящих сообщений участника
	sendBuffer = 64
)

// Client представляет одно websocket-соединение участника сессии
type Client struct {
	hub       *Hub
	logger    *slog.Logger
	conn      *websocket.Conn
	send      chan []byte
	id        string
	sessionID string
	role      Role

	// mu защищает closed: клиент может быть вытеснен конкурентно
	// с рассылкой, и запись в закрытый канал недопустима
	mu     sync.Mutex
	closed bool
}

// NewClient создает участника поверх установленного websocket-соединения
func NewClient(h *Hub, logger *slog.Logger, conn *websocket.Conn, id, sessionID string, role Role) *Client {
	return &Client{
		hub:       h,
		logger:    logger,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		id:        id,
		sessionID: sessionID,
		role:      role,
	}
}

// ID возвращает идентификатор участника
func (c *Client) ID() string { return c.id }

// Role возвращает роль участника
func (c *Client) Role() Role { return c.role }

// Run регистрирует участника и запускает насосы чтения/записи.
// Блокируется до разрыва соединения.
func (c *Client) Run(ctx context.Context) {
	c.hub.Join(ctx, c)

	go c.writePump()
	c.readPump(ctx)
}

// enqueue ставит сообщение в очередь отправки.
// Медленный участник с переполненным буфером отключается:
// лучше реконнект со снапшотом, чем блокировка всей комнаты.
// Проверка closed и закрытие канала происходят под одним мьютексом,
// чтобы рассылка никогда не писала в уже закрытый канал.
func (c *Client) enqueue(data []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	select {
	case c.send <- data:
		c.mu.Unlock()
	default:
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		c.logger.Warn("Send buffer full, dropping client",
			"session_id", c.sessionID,
			"client_id", c.id)
	}
}

// closeSend закрывает канал отправки ровно один раз
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump читает сообщения участника и передает их hub.
// Завершение цикла чтения снимает участника с учета.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Leave(c)
		c.closeSend()
		c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Read error",
					"session_id", c.sessionID,
					"client_id", c.id,
					"error", err)
			}
			return
		}

		c.hub.HandleMessage(ctx, c, raw)
	}
}

// writePump пишет сообщения из очереди и поддерживает ping/pong
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
