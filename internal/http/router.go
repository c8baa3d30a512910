package http

import (
	"github.com/gin-gonic/gin"
	"github.com/iyhunko/marketplace-items/internal/config"
	"github.com/iyhunko/marketplace-items/internal/csrf"
	"github.com/iyhunko/marketplace-items/internal/http/controller"
	"github.com/iyhunko/marketplace-items/internal/http/middleware"
	"github.com/iyhunko/marketplace-items/internal/repository"
)

func InitRouter(
	conf *config.Config,
	users repository.UserRepository,
	guard *csrf.Guard,
	server *gin.Engine,
	ctr *controller.Controller,
	itemCtr *controller.ItemController,
) *gin.Engine {
	httpMiddleware := middleware.New(conf, users)

	// Apply recovery middleware globally to prevent panics from crashing the server
	server.Use(middleware.Recovery())
	server.Use(middleware.Logger())
	server.Use(middleware.CORS(conf.Security.CORSAllowedOrigins))
	server.Use(httpMiddleware.Authenticate())
	server.Use(middleware.CSRFCookie(guard))

	server.GET("/ping", ctr.Ping)

	// Item endpoints
	items := server.Group("/api/items")
	{
		items.GET("/:id", itemCtr.GetItem)
		items.GET("/:id/reviews", itemCtr.ListReviews)

		owned := items.Group("", middleware.RequireUser())
		owned.POST("", itemCtr.CreateItem)
		owned.PUT("/:id", itemCtr.EditItem)
		owned.DELETE("/:id", itemCtr.DeleteItem)
		owned.POST("/:id/images", itemCtr.AddImage)
	}

	return server
}
