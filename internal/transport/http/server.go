package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/parley-server/internal/config"
	"github.com/vovakirdan/parley-server/internal/core"
	"github.com/vovakirdan/parley-server/internal/observability"
	"github.com/vovakirdan/parley-server/internal/store"
)

// NewServer builds the HTTP server: admin API, websocket bus bridge,
// health and metrics endpoints.
func NewServer(hub *core.Hub, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	admin := NewAdminHandlers(hub, st, logger)
	api := router.Group("/api")
	{
		api.POST("/sessions", admin.CreateSession)
		api.GET("/sessions/:id/members", admin.ListSessionMembers)
		api.POST("/sessions/:id/invites", admin.Invite)
		api.DELETE("/sessions/:id/members/:participant", admin.LeaveSession)
		api.DELETE("/sessions/:id", admin.CloseSession)
		api.POST("/channels/:channel/members", admin.JoinChannel)
		api.DELETE("/channels/:channel/members/:participant", admin.LeaveChannel)
		api.POST("/messages", admin.PostMessage)
		api.GET("/messages/:id/outcomes", admin.MessageOutcomes)
	}

	// The websocket upgrade hijacks the connection; it must bypass gin's
	// response writer, so /ws lives on a plain mux in front of the router.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
