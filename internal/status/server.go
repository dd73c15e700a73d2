package status

import (
	"context"
	"errors"
	"net/http"
	"sitemirror/internal/config"
	"sitemirror/internal/logger"
	"sitemirror/internal/model"
	"sitemirror/internal/repository"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server exposes the durable ledger and inventory state over HTTP while
// the watch daemon runs. The ledger file is the source of truth, so the
// server only reads the database.
type Server struct {
	echo    *echo.Echo
	cfg     *config.Config
	ledger  *repository.LedgerRepository
	invRepo *repository.InventoryRepository
	port    int
	stopCh  chan struct{}
}

func NewServer(cfg *config.Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:    e,
		cfg:     cfg,
		ledger:  repository.NewLedgerRepository(),
		invRepo: repository.NewInventoryRepository(),
		port:    cfg.StatusPort,
		stopCh:  make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.GET("/sites", s.handleSites)
	s.echo.GET("/ledger", s.handleLedger)
	s.echo.POST("/stop", s.handleStop)
}

func (s *Server) Start() {
	go func() {
		addr := ":" + strconv.Itoa(s.port)
		logger.Log.Info("status server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("status server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

type SiteStatus struct {
	Site      string `json:"site"`
	Inventory int64  `json:"inventory"`
	Success   int64  `json:"success"`
	Failed    int64  `json:"failed"`
	Pending   int64  `json:"pending"`
}

func (s *Server) handleStatus(c echo.Context) error {
	statuses := make([]SiteStatus, 0, len(s.cfg.Sites))
	for _, site := range s.cfg.Sites {
		stats, err := s.ledger.Stats(site.Name)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}

		records, err := s.invRepo.GetBySite(site.Name)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}

		statuses = append(statuses, SiteStatus{
			Site:      site.Name,
			Inventory: int64(len(records)),
			Success:   stats.Success,
			Failed:    stats.Failed,
			Pending:   stats.Pending,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{"sites": statuses})
}

func (s *Server) handleSites(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"sites": s.cfg.Sites})
}

func (s *Server) handleLedger(c echo.Context) error {
	site := c.QueryParam("site")
	if site == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "site required"})
	}

	n := 50
	if raw := c.QueryParam("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid n"})
		}
		n = parsed
	}

	entries, err := s.ledger.GetBySite(site, model.TransferStatus(c.QueryParam("status")), n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleStop(c echo.Context) error {
	s.stopCh <- struct{}{}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}
