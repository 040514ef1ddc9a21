package status

import (
	"net/http"

	"bestea_pos/internal/connectivity"
	"bestea_pos/internal/register"

	"github.com/gin-gonic/gin"
)

// Handler serves the register UI's view of the agent: connectivity and
// pending-queue state, the shift snapshot, and a manual sync trigger.
type Handler struct {
	monitor  *connectivity.Monitor
	register *register.Service
}

func NewHandler(monitor *connectivity.Monitor, svc *register.Service) *Handler {
	return &Handler{monitor: monitor, register: svc}
}

func NewRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/pos/v1")
	{
		v1.GET("/status", h.Status)
		v1.GET("/shift", h.Shift)
		v1.POST("/sync", h.TriggerSync)
	}
	return r
}

func (h *Handler) Status(c *gin.Context) {
	st, err := h.monitor.Status()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) Shift(c *gin.Context) {
	open, session := h.register.Shift()
	c.JSON(http.StatusOK, gin.H{"open": open, "session": session})
}

func (h *Handler) TriggerSync(c *gin.Context) {
	rep, err := h.monitor.TriggerSync(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}
