package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/hirelink/internal/api/handlers"
	"github.com/yoockh/hirelink/internal/api/middleware"
)

type Deps struct {
	Auth         *handlers.AuthHandler
	Postings     *handlers.PostingHandler
	Applications *handlers.ApplicationHandler
	Profile      *handlers.ProfileHandler
	Feed         *handlers.FeedHandler

	Verifier middleware.Verifier
	Log      *logrus.Logger
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.Auth.Register)
	authGroup.POST("/login", d.Auth.Login)

	// identity resolution; each route then states the role it needs
	secured := r.Group("/")
	secured.Use(middleware.JWTAuth(d.Verifier, d.Log))

	jobs := secured.Group("/api/jobs")
	jobs.GET("", middleware.RequireAuth(), d.Postings.Search)
	jobs.POST("", middleware.RequireRecruiter(), d.Postings.Create)
	jobs.GET("/my-applications", middleware.RequireApplicant(), d.Applications.MyApplications)
	jobs.GET("/recommended", middleware.RequireApplicant(), d.Applications.Recommended)
	jobs.POST("/:id/apply", middleware.RequireApplicant(), d.Applications.Apply)
	jobs.GET("/:id", middleware.RequireAuth(), d.Postings.Get)
	jobs.PUT("/:id", middleware.RequireRecruiter(), d.Postings.Update)

	users := secured.Group("/api/users", middleware.RequireAuth())
	users.GET("/profile", d.Profile.Me)
	users.PUT("/profile", d.Profile.Update)

	recruiter := secured.Group("/api/recruiter", middleware.RequireRecruiter())
	recruiter.GET("/jobs", d.Postings.ListMine)
	recruiter.GET("/stats", d.Postings.Stats)
	recruiter.GET("/jobs/:id/applications", d.Applications.ListApplicants)
	recruiter.PUT("/applications/:id/status", d.Applications.SetStatus)

	if d.Feed != nil {
		secured.GET("/ws/postings/:id/applications", middleware.RequireRecruiter(), d.Feed.PostingApplications)
	}
}
