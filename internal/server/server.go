// Package server exposes the trader's operator HTTP surface.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ContractTrader/internal/metrics"
	"ContractTrader/internal/model"
	"ContractTrader/internal/recorder"
	"ContractTrader/internal/scheduler"
)

// Cycles is the part of the scheduler the server drives.
type Cycles interface {
	RunNow() (*model.CycleReport, error)
	LastReport() *model.CycleReport
	Running() bool
	Cycles() int
}

type Server struct {
	cycles   Cycles
	memory   *metrics.MemorySink
	recorder recorder.Recorder
	started  time.Time
	http     *http.Server
}

func New(addr string, cycles Cycles, memory *metrics.MemorySink, rec recorder.Recorder) *Server {
	s := &Server{cycles: cycles, memory: memory, recorder: rec, started: time.Now()}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/status", s.handleStatus)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/cycles", s.handleCycles)
	r.POST("/cycle", s.handleRunCycle)
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", s.http.Addr).Info("http server listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"running":        s.cycles.Running(),
		"cycles":         s.cycles.Cycles(),
		"last_report":    s.cycles.LastReport(),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	if s.memory == nil {
		c.JSON(http.StatusOK, []metrics.Emission{})
		return
	}
	limit, err := queryLimit(c, 100)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var out []metrics.Emission
	if name := c.Query("name"); name != "" {
		match := metrics.Dimensions{}
		if acct := c.Query("account"); acct != "" {
			match[metrics.DimAccount] = acct
		}
		out = s.memory.Find(name, match)
	} else {
		out = s.memory.Emissions()
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	if out == nil {
		out = []metrics.Emission{}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCycles(c *gin.Context) {
	limit, err := queryLimit(c, 20)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rows, err := s.recorder.RecentCycles(limit)
	if err != nil {
		logrus.WithError(err).Error("list cycles failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list cycles failed"})
		return
	}
	if rows == nil {
		rows = []recorder.CycleSummary{}
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleRunCycle(c *gin.Context) {
	rep, err := s.cycles.RunNow()
	if errors.Is(err, scheduler.ErrCycleRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func queryLimit(c *gin.Context, def int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return n, nil
}
