// Package feed 路单数据源客户端
// 先走 HTTP 握手换取 WebSocket 入口和令牌，再长连接收取全量路单快照。
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/roadbot/internal/events"
	"github.com/betbot/roadbot/internal/session"
)

var log = logrus.WithField("module", "feed")

// Config 数据源配置
type Config struct {
	BaseURL string   `yaml:"baseUrl" json:"baseUrl"` // HTTP 握手入口
	Tables  []string `yaml:"tables" json:"tables"`   // 订阅的桌号

	HandshakeTimeout     time.Duration `yaml:"handshakeTimeout" json:"handshakeTimeout"`
	PingInterval         time.Duration `yaml:"pingInterval" json:"pingInterval"`
	ReconnectDelay       time.Duration `yaml:"reconnectDelay" json:"reconnectDelay"`
	MaxReconnectDelay    time.Duration `yaml:"maxReconnectDelay" json:"maxReconnectDelay"`
	MaxReconnectAttempts int           `yaml:"maxReconnectAttempts" json:"maxReconnectAttempts"`
}

// Defaults 填充零值字段
func (c *Config) Defaults() {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 15 * time.Second
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = time.Second
	}
	if c.MaxReconnectDelay <= 0 {
		c.MaxReconnectDelay = 30 * time.Second
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = 20
	}
}

// handshakeResponse HTTP 握手返回
type handshakeResponse struct {
	WSURL string `json:"wsUrl"`
	Token string `json:"token"`
}

// Sink 快照消费方（session.Manager.Submit 正好是这个形状）
type Sink func(session.Report)

// Client 路单 WebSocket 客户端
// 读循环出错即重连（线性退避封顶），重连成功后重新订阅全部桌号。
type Client struct {
	cfg  Config
	http *resty.Client
	sink Sink

	connMu sync.Mutex
	conn   *websocket.Conn

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewClient 创建客户端，sink 不能为空
func NewClient(cfg Config, sink Sink) *Client {
	cfg.Defaults()
	return &Client{
		cfg: cfg,
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.HandshakeTimeout).
			SetRetryCount(2),
		sink:   sink,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start 握手、连接、启动读和心跳循环
func (c *Client) Start(ctx context.Context) error {
	if err := c.connect(ctx); err != nil {
		return err
	}
	go c.readLoop(ctx)
	go c.pingLoop(ctx)
	return nil
}

// Stop 关闭连接并等待读循环退出
func (c *Client) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.closeConn()
	select {
	case <-c.doneCh:
	case <-time.After(5 * time.Second):
		log.Warn("⚠️ 读循环退出超时")
	}
}

// handshake 换取 WebSocket 入口
func (c *Client) handshake(ctx context.Context) (*handshakeResponse, error) {
	var out handshakeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Post("/api/feed/session")
	if err != nil {
		return nil, errors.Wrap(err, "feed: handshake")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Errorf("feed: handshake status %d", resp.StatusCode())
	}
	if out.WSURL == "" {
		return nil, errors.New("feed: handshake returned empty wsUrl")
	}
	return &out, nil
}

// connect 建立连接并订阅
func (c *Client) connect(ctx context.Context) error {
	hs, err := c.handshake(ctx)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	header := http.Header{}
	if hs.Token != "" {
		header.Set("Authorization", "Bearer "+hs.Token)
	}
	conn, _, err := dialer.DialContext(ctx, hs.WSURL, header)
	if err != nil {
		return errors.Wrap(err, "feed: dial")
	}

	sub := map[string]any{"type": "subscribe", "tables": c.cfg.Tables}
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "feed: subscribe")
	}

	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	c.connMu.Unlock()

	log.Infof("📡 已连接 %s，订阅 %d 张桌", hs.WSURL, len(c.cfg.Tables))
	return nil
}

func (c *Client) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != nil {
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.conn.Close()
		c.conn = nil
	}
}

// readLoop 读取循环：错误即清理连接并重连
func (c *Client) readLoop(ctx context.Context) {
	defer close(c.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn == nil {
			if !c.reconnect(ctx) {
				return
			}
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			c.connMu.Lock()
			if c.conn != nil {
				_ = c.conn.Close()
				c.conn = nil
			}
			c.connMu.Unlock()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("📡 连接正常关闭")
				return
			}
			log.Warnf("⚠️ 读取错误: %v，准备重连", err)
			continue
		}
		c.handleMessage(message)
	}
}

// pingLoop 心跳：上游约定文本 PING/PONG 而不是 WebSocket 控制帧
func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.connMu.Lock()
			conn := c.conn
			c.connMu.Unlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte("PING")); err != nil {
				log.Debugf("PING 发送失败: %v", err)
			}
		}
	}
}

// reconnect 线性退避重连，返回 false 表示放弃
func (c *Client) reconnect(ctx context.Context) bool {
	for attempt := 1; attempt <= c.cfg.MaxReconnectAttempts; attempt++ {
		delay := c.cfg.ReconnectDelay * time.Duration(attempt)
		if delay > c.cfg.MaxReconnectDelay {
			delay = c.cfg.MaxReconnectDelay
		}
		log.Infof("🔄 %v 后重连 (尝试 %d/%d)", delay, attempt, c.cfg.MaxReconnectAttempts)
		select {
		case <-ctx.Done():
			return false
		case <-c.stopCh:
			return false
		case <-time.After(delay):
		}
		if err := c.connect(ctx); err != nil {
			log.Warnf("⚠️ 重连失败: %v", err)
			continue
		}
		return true
	}
	log.Errorf("❌ 达到最大重连次数 (%d)，放弃", c.cfg.MaxReconnectAttempts)
	return false
}

// handleMessage 文本 PONG 直接吞掉，其余按路单事件解析
func (c *Client) handleMessage(data []byte) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '{' && trimmed[0] != '[' {
		return // PONG 等文本帧
	}

	var ev events.RoadReportEvent
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		log.Debugf("丢弃无法解析的消息: %v", err)
		return
	}
	if ev.Table == "" {
		log.Debugf("丢弃缺少桌号的消息")
		return
	}
	c.sink(session.Report{Table: ev.Table, Results: ev.Results})
}
