package v1

import (
	"net/http"
	"os"

	"go-contact-relay/config"
	"go-contact-relay/internal/delivery/http/middleware"
	"go-contact-relay/internal/delivery/http/response"
	"go-contact-relay/internal/domain"
	"go-contact-relay/internal/usecase"
	"go-contact-relay/pkg/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	HealthUC  usecase.HealthUsecase
	ContactUC domain.ContactUsecase
	Config    *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware()) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware(deps.Config.IsProduction()))
	r.Use(middleware.ErrorHandler())

	// Health Check
	r.GET("/", healthHandler(deps.HealthUC))

	NewContactHandler(r, deps.ContactUC, deps.Config.ConfirmationURL, deps.Config.MaxAttachmentBytes)

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Everything else is looked up in the static directory
	r.NoRoute(staticHandler(deps.Config.StaticDir))

	return r
}

// healthHandler godoc
// @Summary      Liveness check
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.MessageResponse
// @Router       / [get]
func healthHandler(uc usecase.HealthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, uc.Check(c.Request.Context()))
	}
}

func staticHandler(dir string) gin.HandlerFunc {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Log.Warn("Static directory not found, static assets disabled", "dir", dir)
		return func(c *gin.Context) {
			response.Message(c, http.StatusNotFound, "Not Found")
		}
	}

	files := http.FileServer(gin.Dir(dir, false))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			response.Message(c, http.StatusNotFound, "Not Found")
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
