package transport

import (
	"context"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "transport")

// Relay 决策日志广播端
// 显示进程随时可以连上来，慢客户端或断开的客户端直接踢掉，
// 不允许任何下游拖慢决策主循环。
type Relay struct {
	ln net.Listener

	mu    sync.Mutex
	conns map[net.Conn]*FrameWriter
}

// Listen 在 addr 上监听（如 127.0.0.1:7311）
func Listen(addr string) (*Relay, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Relay{ln: ln, conns: make(map[net.Conn]*FrameWriter)}, nil
}

// Addr 实际监听地址（端口 0 时有用）
func (r *Relay) Addr() string {
	return r.ln.Addr().String()
}

// Serve 接受连接直到 ctx 取消或监听器关闭
func (r *Relay) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		r.Close()
	}()
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			return
		}
		r.mu.Lock()
		r.conns[conn] = NewFrameWriter(conn)
		n := len(r.conns)
		r.mu.Unlock()
		log.Infof("🔌 显示端接入 %s（共 %d）", conn.RemoteAddr(), n)
	}
}

// Broadcast 向所有在线客户端各写一帧，写失败即踢
func (r *Relay) Broadcast(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for conn, fw := range r.conns {
		if err := fw.WriteJSON(v); err != nil {
			log.Debugf("🔌 踢掉显示端 %s: %v", conn.RemoteAddr(), err)
			_ = conn.Close()
			delete(r.conns, conn)
		}
	}
}

// ClientCount 当前在线客户端数
func (r *Relay) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Close 关闭监听器和所有连接
func (r *Relay) Close() {
	_ = r.ln.Close()
	r.mu.Lock()
	defer r.mu.Unlock()
	for conn := range r.conns {
		_ = conn.Close()
	}
	r.conns = make(map[net.Conn]*FrameWriter)
}
