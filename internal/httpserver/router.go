package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/video_catalog/internal/middleware/auth"
	"github.com/Skotchmaster/video_catalog/internal/middleware/ratelimit"
	"github.com/Skotchmaster/video_catalog/internal/models"
)

type Deps struct {
	DB         *gorm.DB
	Auth       *auth.Auth
	Limiter    ratelimit.Limiter
	CronSecret string

	AuthHandler     *AuthHTTP
	UsersHandler    *UsersHTTP
	MoviesHandler   *MoviesHTTP
	MetadataHandler *MetadataHTTP
	CronHandler     *CronHTTP
}

func Register(e *echo.Echo, d *Deps) {
	health := &HealthHTTP{DB: d.DB}
	e.GET("/health/live", health.Live)
	e.GET("/health/ready", health.Ready)

	api := e.Group("/api")
	if d.Limiter != nil {
		api.Use(ratelimit.Middleware(d.Limiter))
	}

	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/refresh-token", d.AuthHandler.Refresh)
	api.POST("/logout", d.AuthHandler.LogOut)

	api.GET("/movies", d.MoviesHandler.GetMovies)
	api.GET("/movies/search", d.MoviesHandler.SearchMovies)
	api.GET("/movies/:id", d.MoviesHandler.GetMovie)

	admin := []echo.MiddlewareFunc{d.Auth.RequireAuth, d.Auth.RequireRole(models.RoleAdmin)}
	api.POST("/movies", d.MoviesHandler.CreateMovie, admin...)
	api.PUT("/movies/:id", d.MoviesHandler.UpdateMovie, admin...)
	api.DELETE("/movies/:id", d.MoviesHandler.DeleteMovie, admin...)

	if d.MetadataHandler != nil {
		api.POST("/fetch-movie-data", d.MetadataHandler.FetchMovieData, admin...)
	}

	owner := append(admin, d.Auth.RequireOwner)
	api.GET("/users", d.UsersHandler.ListUsers, owner...)
	api.PUT("/users/:id", d.UsersHandler.UpdateRole, owner...)
	api.DELETE("/users/:id", d.UsersHandler.DeleteUser, owner...)
	api.POST("/users/:id/vip", d.UsersHandler.AddVIPDays, owner...)

	cronAuth := RequireCronSecret(d.CronSecret)
	api.GET("/cron/cleanup", d.CronHandler.Cleanup, cronAuth)
	api.GET("/cron/daily-summary", d.CronHandler.DailySummary, cronAuth)
}
