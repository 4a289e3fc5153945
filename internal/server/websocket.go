package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shouni/go-series-kit/pkg/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	sendBufferSize = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// snapshotMessage は /ws に流す全プロジェクトのスナップショットなのだ。
type snapshotMessage struct {
	Type     string           `json:"type"`
	Projects []domain.Project `json:"projects"`
}

// client は1つの WebSocket 接続なのだ。
type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// hub は Store の保存通知を接続中のクライアントへ配るのだ。
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*client]struct{})}
}

// join は現在の一覧を最初のメッセージとして積んでからクライアントを登録するのだ。
// publish と同じロックの中で一覧を読むので、その後の保存は必ずこのクライアントに届くのだ。
func (h *hub) join(c *client, current func() ([]domain.Project, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	projects, err := current()
	if err != nil {
		return err
	}
	msg, err := encodeSnapshot(projects)
	if err != nil {
		return err
	}
	c.send <- msg
	h.clients[c] = struct{}{}
	return nil
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// publish は Store から呼ばれるので決してブロックしないのだ。
// 送信キューが詰まっているクライアントには古いスナップショットを送らずに捨てるのだ。
func (h *hub) publish(projects []domain.Project) {
	msg, err := encodeSnapshot(projects)
	if err != nil {
		slog.Warn("スナップショットのエンコードに失敗したのだ", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slog.Warn("WebSocket の送信キューが一杯なので通知を捨てたのだ")
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

func encodeSnapshot(projects []domain.Project) ([]byte, error) {
	if projects == nil {
		projects = []domain.Project{}
	}
	return json.Marshal(snapshotMessage{Type: "snapshot", Projects: projects})
}

// serveWS は接続直後に現在の一覧を送り、以降は保存のたびに一覧を送るのだ。
func (s *Server) serveWS(c *gin.Context) {
	ctx := c.Request.Context()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(ctx, "WebSocket へのアップグレードに失敗したのだ", "error", err)
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	if err := s.hub.join(cl, func() ([]domain.Project, error) {
		return s.svc.ListProjects(ctx)
	}); err != nil {
		slog.WarnContext(ctx, "最初のスナップショットを送れなかったのだ", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "snapshot unavailable"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go s.readPump(cl)
	s.writePump(cl)
}

// readPump はクライアントからの切断と pong だけを処理するのだ。
func (s *Server) readPump(cl *client) {
	defer s.hub.remove(cl)

	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.hub.remove(cl)
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.hub.remove(cl)
				return
			}
		}
	}
}
