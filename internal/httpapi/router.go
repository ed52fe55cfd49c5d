package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler, corsOrigins []string, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	if mw := CORS(corsOrigins); mw != nil {
		r.Use(mw)
	}

	r.GET("/healthcheck", h.HealthCheck)

	api := r.Group("/api")
	{
		categories := api.Group("/categories")
		categories.GET("", list(h, h.svc.ListCategories))
		categories.POST("", create(h, h.svc.CreateCategory))
		categories.GET("/:id", get(h, h.svc.GetCategory))
		categories.PATCH("/:id", update(h, h.svc.UpdateCategory))
		categories.DELETE("/:id", remove(h, h.svc.DeleteCategory))
		categories.GET("/:id/items", h.CategoryItems)

		tags := api.Group("/tags")
		tags.GET("", list(h, h.svc.ListTags))
		tags.POST("", create(h, h.svc.CreateTag))
		tags.GET("/:id", get(h, h.svc.GetTag))
		tags.PATCH("/:id", update(h, h.svc.UpdateTag))
		tags.DELETE("/:id", remove(h, h.svc.DeleteTag))
		tags.GET("/:id/items", h.TagItems)

		properties := api.Group("/properties")
		properties.GET("", list(h, h.svc.ListProperties))
		properties.POST("", create(h, h.svc.CreateProperty))
		properties.GET("/:id", get(h, h.svc.GetProperty))
		properties.PATCH("/:id", update(h, h.svc.UpdateProperty))
		properties.DELETE("/:id", remove(h, h.svc.DeleteProperty))

		uses := api.Group("/uses")
		uses.GET("", list(h, h.svc.ListUses))
		uses.POST("", create(h, h.svc.CreateUse))
		uses.GET("/:id", get(h, h.svc.GetUse))
		uses.PATCH("/:id", update(h, h.svc.UpdateUse))
		uses.DELETE("/:id", remove(h, h.svc.DeleteUse))

		items := api.Group("/items")
		items.GET("", h.ListItems)
		items.POST("", create(h, h.svc.CreateItem))
		items.GET("/:id", get(h, h.svc.GetItem))
		items.PATCH("/:id", update(h, h.svc.UpdateItem))
		items.DELETE("/:id", remove(h, h.svc.DeleteItem))

		protocols := api.Group("/protocols")
		protocols.GET("", list(h, h.svc.ListProtocols))
		protocols.POST("", create(h, h.svc.CreateProtocol))
		protocols.GET("/:id", get(h, h.svc.DescribeProtocol))
		protocols.PATCH("/:id", update(h, h.svc.UpdateProtocol))
		protocols.DELETE("/:id", remove(h, h.svc.DeleteProtocol))
		protocols.GET("/:id/metadata", h.ProtocolMetadata)
	}

	return r
}
