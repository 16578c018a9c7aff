// cmd/push-gateway/main.go
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"flashmart/internal/pkg/bootstrap"
	"flashmart/internal/pkg/logger"
	"flashmart/internal/pkg/session"
)

const (
	serviceName = "push-gateway"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool { // 简化处理，允许所有跨域
		return true
	},
}

// Hub 维护所有活跃的连接，并负责消息下发。
type Hub struct {
	nodeID     string
	sessionMgr *session.Manager

	clients    map[string]*Client // UserID -> 连接
	register   chan *Client
	unregister chan *Client
	deliver    chan pushMessage
}

type pushMessage struct {
	userID  string
	payload []byte
	result  chan bool
}

func newHub(nodeID string, sessionMgr *session.Manager) *Hub {
	return &Hub{
		nodeID:     nodeID,
		sessionMgr: sessionMgr,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan pushMessage),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			// 同一用户重连时顶掉旧连接
			if old, ok := h.clients[client.userID]; ok {
				close(old.send)
			}
			h.clients[client.userID] = client
			logger.Logger().Printf("Client %s registered on node %s", client.userID, h.nodeID)
		case client := <-h.unregister:
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
				_ = h.sessionMgr.RemoveUserGateway(context.Background(), client.userID)
			}
			logger.Logger().Printf("Client %s unregistered", client.userID)
		case msg := <-h.deliver:
			client, ok := h.clients[msg.userID]
			if !ok {
				msg.result <- false
				continue
			}
			select {
			case client.send <- msg.payload:
				msg.result <- true
			default:
				// 发送缓冲满说明连接已死，踢掉
				delete(h.clients, msg.userID)
				close(client.send)
				msg.result <- false
			}
		}
	}
}

// Deliver 尝试把消息投递给本节点上的在线用户。
func (h *Hub) Deliver(userID string, payload []byte) bool {
	result := make(chan bool, 1)
	h.deliver <- pushMessage{userID: userID, payload: payload, result: result}
	return <-result
}

// Client 是一个 WebSocket 连接的代表。
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// writePump 把 send channel 中的消息写入连接，并周期性发 ping 维持心跳。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息（只处理心跳），连接断开时触发注销。
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger().Printf("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), userID: userID}
	client.hub.register <- client

	if err := hub.sessionMgr.SetUserGateway(r.Context(), userID, hub.nodeID); err != nil {
		logger.Logger().Printf("Failed to set session for user %s: %v", userID, err)
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// servePush 是通知渠道调用的下发接口。
// 用户在本节点在线返回 200，不在线返回 404，调用方落到下一个渠道。
func servePush(hub *Hub, w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	message := r.URL.Query().Get("message")
	if userID == "" || message == "" {
		http.Error(w, "user_id and message are required", http.StatusBadRequest)
		return
	}

	if !hub.Deliver(userID, []byte(message)) {
		http.Error(w, "user is not connected", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func main() {
	cfg := bootstrap.GetCurrentConfig()

	nodeID := serviceName + "-" + uuid.New().String()[:8]
	sessionMgr := session.NewManager(cfg.Infra.Redis.Addr)
	hub := newHub(nodeID, sessionMgr)
	go hub.run()

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8088,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
				serveWs(hub, w, r)
			})
			appCtx.Mux.HandleFunc("POST /push", func(w http.ResponseWriter, r *http.Request) {
				servePush(hub, w, r)
			})
		},
		OnShutdown: func(ctx context.Context) {
			sessionMgr.Close()
		},
	})
}
