// Package controlplane 运行状态查询接口（只读，不提供远程控制）。
package controlplane

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/betbot/roadbot/internal/recorder"
	"github.com/betbot/roadbot/internal/session"
)

// Server 控制面 HTTP 服务
type Server struct {
	manager  *session.Manager
	recorder *recorder.Recorder
}

// New 创建服务，recorder 可为 nil（未开启落盘时）
func New(manager *session.Manager, rec *recorder.Recorder) *Server {
	return &Server{manager: manager, recorder: rec}
}

// Router 组装路由
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.GET("/tables", s.handleTables)
	api.GET("/tables/:table", s.handleTable)
	api.GET("/tables/:table/decisions", s.handleDecisions)
	api.GET("/stats", s.handleStats)

	return r
}

func (s *Server) handleTables(c *gin.Context) {
	snap := s.manager.Snapshot()
	sort.Slice(snap, func(i, j int) bool { return snap[i].Table < snap[j].Table })
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleTable(c *gin.Context) {
	table := c.Param("table")
	for _, st := range s.manager.Snapshot() {
		if st.Table == table {
			c.JSON(http.StatusOK, st)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown table"})
}

func (s *Server) handleDecisions(c *gin.Context) {
	if s.recorder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recorder disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := s.recorder.Recent(c.Param("table"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tables":         len(s.manager.Snapshot()),
		"droppedRecords": s.manager.DroppedRecords(),
	})
}
