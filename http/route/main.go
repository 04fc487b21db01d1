package routes

import (
	"github.com/baysideportal/media-gateway/http/controller"
	middlewares "github.com/baysideportal/media-gateway/http/middleware"
	"github.com/baysideportal/media-gateway/mediapath"
	"github.com/gin-gonic/gin"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)

	r.GET("/health", ctrl.HealthCheck)

	// Canonical proxy form.
	r.GET("/api/storage-proxy/:bucket/*key", ctrl.ServeProxy)

	// Legacy pass-through aliases: historically stored references hit these
	// directly, so they route through the same classifier/resolver.
	r.GET("/uploads/*filepath", ctrl.ServeLegacy)
	for _, dir := range mediapath.LegacyDirectories() {
		r.GET("/"+dir+"/*filepath", ctrl.ServeLegacy)
	}

	apiRoutes := r.Group("/api/v1/media")
	{
		apiRoutes.Use(middles.AuthMiddleware)

		migrationRoutes := apiRoutes.Group("/migrations")
		{
			migrationRoutes.POST("/run", ctrl.RunMigration)
			migrationRoutes.GET("/", ctrl.ListMigrations)
			migrationRoutes.GET("/summary", ctrl.MigrationSummary)
		}

		apiRoutes.GET("/references/inspect", ctrl.InspectReference)
		apiRoutes.GET("/references/resolve", ctrl.ResolveReference)
		apiRoutes.GET("/storage/health", ctrl.StorageHealth)
	}

	return r
}
