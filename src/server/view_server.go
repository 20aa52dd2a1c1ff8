package server

import (
	"fmt"
	"net/http"
	"sync"

	"mark-price-dashboard/src/logger"
	"mark-price-dashboard/src/models"
	"mark-price-dashboard/src/store"
	"mark-price-dashboard/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// ViewServer
// -----------------------------------------------------------------------------

// ViewServer is the subscription surface the external view layer consumes:
// a websocket hub pushing every derived-state generation, plus REST
// endpoints for reads and selection changes.
type ViewServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	Store  *store.Store
	engine *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan models.MDerivedState
	register   chan *Client
	unregister chan *Client

	// Latest published state, served to clients on connect
	latestState models.MDerivedState
	hasState    bool
	stateMutex  sync.RWMutex

	stopOnce sync.Once
	stop     chan struct{}
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewViewServer(cfg *models.MConfig, st *store.Store, log *logger.Logger) *ViewServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &ViewServer{
		Config:  cfg,
		Logger:  log,
		Store:   st,
		engine:  gin.Default(),
		clients: make(map[*Client]struct{}),
		// Buffered so a burst of store generations never blocks the
		// publisher.
		broadcast:  make(chan models.MDerivedState, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *ViewServer) setupRoutes() {
	s.engine.GET("/api/state", s.getState)
	s.engine.GET("/api/errorlog", s.getErrorLog)
	s.engine.GET("/api/health", s.getHealth)
	s.engine.POST("/api/selection", s.postSelection)
	s.engine.POST("/api/selection/shift", s.postShiftMonth)
	s.engine.POST("/api/reload", s.postReload)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start runs the hub, bridges the store subscription into the broadcast
// queue, and serves HTTP. Blocks until the listener fails.
func (s *ViewServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting view server on %s", addr)

	go s.handleWebsockets()

	states, cancel := s.Store.Subscribe()
	go func() {
		defer cancel()
		for {
			select {
			case state, ok := <-states:
				if !ok {
					return
				}
				select {
				case s.broadcast <- state:
				case <-s.stop:
					return
				}
			case <-s.stop:
				return
			}
		}
	}()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *ViewServer) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *ViewServer) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.Store.State())
}

// -----------------------------------------------------------------------------

func (s *ViewServer) getErrorLog(c *gin.Context) {
	state := s.Store.State()
	c.JSON(http.StatusOK, gin.H{"entries": state.ErrorLog})
}

// -----------------------------------------------------------------------------

func (s *ViewServer) getHealth(c *gin.Context) {
	state := s.Store.State()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"loading":    state.Loading,
		"generation": state.Generation,
	})
}

// -----------------------------------------------------------------------------

// selectionPatch carries the optional selection fields of a POST
// /api/selection body; absent fields leave the current value untouched.
type selectionPatch struct {
	YearMonth *string `json:"yearMonth"`
	ShowAll   *bool   `json:"showAll"`
	ShowChart *bool   `json:"showChart"`
}

func (s *ViewServer) postSelection(c *gin.Context) {
	var patch selectionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if patch.YearMonth != nil {
		ym := *patch.YearMonth
		if len(ym) != 7 || ym[4] != '-' {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid yearMonth %q", ym)})
			return
		}
		s.Store.SetYearMonth(ym)
	}
	if patch.ShowAll != nil {
		s.Store.SetShowAll(*patch.ShowAll)
	}
	if patch.ShowChart != nil {
		current := s.Store.State().Selection.ShowChart
		if current != *patch.ShowChart {
			s.Store.ToggleChart()
		}
	}

	c.JSON(http.StatusOK, s.Store.State().Selection)
}

// -----------------------------------------------------------------------------

func (s *ViewServer) postReload(c *gin.Context) {
	s.Store.RequestReload()
	c.JSON(http.StatusAccepted, gin.H{"status": "reload requested"})
}

// -----------------------------------------------------------------------------

// postShiftMonth moves the selected month by n, the arrow-button navigation
// of the month picker.
func (s *ViewServer) postShiftMonth(c *gin.Context) {
	var body struct {
		N int `json:"n"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	current := s.Store.State().Selection.YearMonth
	if len(current) != 7 {
		c.JSON(http.StatusConflict, gin.H{"error": "no month selected"})
		return
	}
	shifted := utils.ShiftMonth(current, body.N)
	s.Store.SetYearMonth(shifted)
	c.JSON(http.StatusOK, gin.H{"yearMonth": shifted})
}
