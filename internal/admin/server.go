package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/betbot/polysport/internal/execution"
	"github.com/betbot/polysport/internal/risk"
)

// Server exposes a small read-only HTTP surface for operators: health,
// current state and the open order book. Mutations go through telegram only.
type Server struct {
	risk *risk.Engine
	exec *execution.Engine
	log  *logrus.Entry
}

func NewServer(riskEngine *risk.Engine, exec *execution.Engine) *Server {
	return &Server{
		risk: riskEngine,
		exec: exec,
		log:  logrus.WithField("component", "admin"),
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/status", s.handleStatus)
	r.GET("/orders", s.handleOrders)
	return r
}

func (s *Server) handleStatus(c *gin.Context) {
	orders, err := s.exec.OpenOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger unavailable"})
		return
	}
	limits := s.risk.Limits()
	c.JSON(http.StatusOK, gin.H{
		"trading_enabled":    s.risk.TradingEnabled(),
		"paper_mode":         s.exec.Paper(),
		"open_orders":        len(orders),
		"max_position_size":  limits.MaxPositionSize,
		"max_order_size":     limits.MaxOrderSize,
		"max_open_positions": limits.MaxOpenPositions,
		"max_daily_loss":     limits.MaxDailyLoss,
	})
}

func (s *Server) handleOrders(c *gin.Context) {
	orders, err := s.exec.OpenOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger unavailable"})
		return
	}
	out := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		out = append(out, gin.H{
			"order_id":   o.OrderID,
			"market_id":  o.MarketID,
			"outcome_id": o.OutcomeID,
			"side":       o.Side,
			"price":      o.Price,
			"size":       o.Size,
			"status":     o.Status,
			"strategy":   o.Strategy,
			"created_at": o.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// StartAsync serves on addr and shuts down gracefully when ctx is cancelled.
func (s *Server) StartAsync(ctx context.Context, addr string) {
	srv := &http.Server{Addr: addr, Handler: s.router()}
	go func() {
		s.log.Infof("admin server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("admin server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
