// Package transport 决策日志到显示进程的转发通道。
// 线上格式：4 字节小端长度前缀 + UTF-8 JSON 载荷，TCP 字节流任意切分都能重组。
package transport

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// MaxFrameSize 单帧载荷上限
// 长度前缀来自外部字节流，不设上限会让一个坏前缀吃光内存。
const MaxFrameSize = 4 << 20

// ErrFrameTooLarge 长度前缀超出上限，流已不可信
var ErrFrameTooLarge = errors.New("transport: frame exceeds size limit")

// FrameWriter 并发安全的帧写入器
type FrameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewFrameWriter 包装任意 io.Writer
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame 写一帧：前缀和载荷一次 Write 发出，避免半帧交错
func (fw *FrameWriter) WriteFrame(payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	buf := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(payload)))
	copy(buf[4:], payload)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if _, err := fw.w.Write(buf); err != nil {
		return errors.Wrap(err, "transport: write frame")
	}
	return nil
}

// WriteJSON 序列化后写一帧
func (fw *FrameWriter) WriteJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "transport: marshal frame")
	}
	return fw.WriteFrame(payload)
}

// FrameReader 增量帧重组器
// Feed 喂入任意切分的字节片段，返回其中所有完整载荷；
// 不完整的尾部留在内部缓冲等下一次 Feed。
type FrameReader struct {
	buf []byte
}

// NewFrameReader 创建重组器
func NewFrameReader() *FrameReader {
	return &FrameReader{}
}

// Feed 追加字节并抽干缓冲里的完整帧
func (fr *FrameReader) Feed(p []byte) ([][]byte, error) {
	fr.buf = append(fr.buf, p...)

	var frames [][]byte
	for {
		if len(fr.buf) < 4 {
			return frames, nil
		}
		n := binary.LittleEndian.Uint32(fr.buf[:4])
		if n > MaxFrameSize {
			return frames, ErrFrameTooLarge
		}
		if len(fr.buf) < 4+int(n) {
			return frames, nil
		}
		payload := make([]byte, n)
		copy(payload, fr.buf[4:4+n])
		frames = append(frames, payload)
		fr.buf = fr.buf[4+n:]
	}
}

// Pending 缓冲中尚未凑齐一帧的字节数
func (fr *FrameReader) Pending() int {
	return len(fr.buf)
}
