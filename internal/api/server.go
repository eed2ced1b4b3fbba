package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/rank11/sol-wallet-monitor/internal/detector"
	"github.com/rank11/sol-wallet-monitor/internal/dispatch"
	"github.com/rank11/sol-wallet-monitor/internal/middleware"
	"github.com/rank11/sol-wallet-monitor/internal/models"
	"github.com/rank11/sol-wallet-monitor/internal/monitor"
	"github.com/rank11/sol-wallet-monitor/internal/watchlist"
)

// Server exposes a read-only status API over the running monitor.
type Server struct {
	wallets   *watchlist.Registry
	detector  *detector.Detector
	events    *dispatch.EventRing
	runner    *monitor.Runner
	rateLimit middleware.RateLimiterConfig
	started   time.Time
}

// NewServer creates a status API server over the given components.
func NewServer(wallets *watchlist.Registry, det *detector.Detector, events *dispatch.EventRing, runner *monitor.Runner, rateLimit middleware.RateLimiterConfig) *Server {
	return &Server{
		wallets:   wallets,
		detector:  det,
		events:    events,
		runner:    runner,
		rateLimit: rateLimit,
		started:   time.Now(),
	}
}

// Router builds the gin engine with all status routes configured.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimiter(s.rateLimit))

	r.Any("/health", s.health)
	r.GET("/wallets", s.listWallets)
	r.GET("/events", s.listEvents)
	r.GET("/stats", s.stats)

	return r
}

// Run serves the status API until the listener fails.
func (s *Server) Run(addr string) error {
	log.WithField("addr", addr).Info("status API listening")
	return s.Router().Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type walletStatus struct {
	Address    string  `json:"address"`
	Name       string  `json:"name"`
	Emoji      string  `json:"emoji,omitempty"`
	Lamports   uint64  `json:"lamports"`
	BalanceSol float64 `json:"balance_sol"`
}

func (s *Server) listWallets(c *gin.Context) {
	balances := s.detector.Balances()

	wallets := s.wallets.Snapshot()
	out := make([]walletStatus, 0, len(wallets))
	for _, w := range wallets {
		lamports := balances[w.Address]
		out = append(out, walletStatus{
			Address:    w.Address,
			Name:       w.Name,
			Emoji:      w.Emoji,
			Lamports:   lamports,
			BalanceSol: float64(lamports) / models.LamportsPerSol,
		})
	}

	c.JSON(http.StatusOK, gin.H{"wallets": out, "count": len(out)})
}

func (s *Server) listEvents(c *gin.Context) {
	recent := s.events.Recent()
	c.JSON(http.StatusOK, gin.H{"events": recent, "count": len(recent)})
}

func (s *Server) stats(c *gin.Context) {
	stats := s.runner.Stats()
	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds":   int64(time.Since(s.started).Seconds()),
		"cycles":           stats.Cycles,
		"changes_detected": stats.Changes,
		"handle_errors":    stats.HandleErrors,
		"rate_limits":      stats.RateLimits,
		"poll_delay":       stats.PollDelay.String(),
		"last_cycle":       stats.LastCycle.Format(time.RFC3339),
		"wallets":          stats.Wallets,
	})
}
