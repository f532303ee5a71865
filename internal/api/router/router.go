package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/notification-api/internal/api/handlers/notification"
	"github.com/aliskhannn/notification-api/internal/api/middlewares"
)

func New(handler *notification.Handler) *ginext.Engine {
	e := ginext.New()
	e.Use(middlewares.Metrics)
	e.Use(ginext.Logger())
	e.Use(ginext.Recovery())

	e.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := e.Group("/api")
	{
		api.POST("/notifications", handler.Create)
		api.POST("/notifications/batch", handler.Batch)
		api.GET("/notifications/:id", handler.Get)
		api.PATCH("/notifications/:id", handler.Patch)
		api.DELETE("/notifications/:id", handler.Delete)
		api.DELETE("/requests/:requestId", handler.DropRequest)
		api.GET("/schedule", handler.Pending)
	}

	return e
}
