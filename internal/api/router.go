package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"museum-registry-backend/config"
	"museum-registry-backend/internal/auth"
	"museum-registry-backend/internal/mw"
	"museum-registry-backend/internal/notification"
	"museum-registry-backend/internal/store"
)

// NewRouter creates and configures the Gin router for the whole surface:
// the server-rendered pages plus the JSON subscription API.
func NewRouter(cfg *config.Config, s store.Store, pool *notification.WorkerPool) *gin.Engine {
	r := gin.Default()
	r.LoadHTMLGlob(cfg.Server.TemplatesGlob)

	r.Use(sessions.Sessions("mr_session", cookie.NewStore([]byte(cfg.Auth.SessionSecret))))
	r.Use(auth.CurrentUser(s, cfg.Auth.JWTSecret, cfg.Auth.CookieName))

	handler := NewHandler(s, cfg, pool)
	requireAuth := auth.RequireAuth(cfg.Auth.SignInURL)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/authorities")
	})

	authorities := r.Group("/authorities")
	{
		authorities.GET("", handler.ListAuthorities)
		authorities.GET("/add", requireAuth, handler.AddAuthority)
		authorities.POST("/add", requireAuth, handler.AddAuthority)
		authorities.GET("/:id", handler.Details)
		authorities.POST("/:id", handler.Details) // comment submission; auth checked inside
		authorities.GET("/:id/edit", requireAuth, handler.UpdateAuthority)
		authorities.POST("/:id/edit", requireAuth, handler.UpdateAuthority)
		authorities.POST("/:id/delete", requireAuth, handler.DeleteAuthority)
		authorities.GET("/:id/museums/add", requireAuth, handler.AddMuseum)
		authorities.POST("/:id/museums/add", requireAuth, handler.AddMuseum)
	}

	museums := r.Group("/museums", requireAuth)
	{
		museums.GET("/:id/book", handler.AddBooking)
		museums.POST("/:id/book", handler.AddBooking)
		museums.GET("/:id/bookmark", handler.AddBookmark)
		museums.POST("/:id/bookmark", handler.AddBookmark)
	}

	r.GET("/search", handler.Search)

	// JSON API for push subscriptions, rate limited per client IP.
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(cacheTTL, 2*cacheTTL), cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/vapid_public_key", caching, handler.GetVAPIDPublicKey)

		subscriptions := api.Group("/subscriptions", auth.RequireAuthJSON())
		{
			subscriptions.PUT("", handler.PutSubscription)
			subscriptions.GET("", handler.GetSubscription)
			subscriptions.DELETE("", handler.DeleteSubscription)
		}
	}

	return r
}
