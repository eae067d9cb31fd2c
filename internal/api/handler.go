package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"museum-registry-backend/config"
	"museum-registry-backend/internal/auth"
	"museum-registry-backend/internal/flash"
	"museum-registry-backend/internal/notification"
	"museum-registry-backend/internal/store"
)

// Handler holds shared dependencies for the web handlers.
type Handler struct {
	store store.Store
	cfg   *config.Config
	pool  *notification.WorkerPool
}

// NewHandler creates a new Handler. pool may be nil when push delivery is
// not configured.
func NewHandler(s store.Store, cfg *config.Config, pool *notification.WorkerPool) *Handler {
	return &Handler{
		store: s,
		cfg:   cfg,
		pool:  pool,
	}
}

// render draws a template with the ambient context every page needs: the
// drained flash queue and the current user.
func (h *Handler) render(c *gin.Context, status int, name string, ctx gin.H) {
	if ctx == nil {
		ctx = gin.H{}
	}
	ctx["messages"] = flash.Take(c)
	ctx["user"] = auth.UserFrom(c)
	c.HTML(status, name, ctx)
}

func (h *Handler) notFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "not_found.html", nil)
	c.Abort()
}

// forbidden redirects to the safe fallback with an error flash, per the
// guard contract: no mutation happened.
func (h *Handler) forbidden(c *gin.Context, message string) {
	flash.Error(c, message)
	c.Redirect(http.StatusFound, "/")
	c.Abort()
}

func (h *Handler) dispatch(event notification.Event) {
	if h.pool != nil {
		h.pool.Dispatch(event)
	}
}

// saveUpload stores an optional uploaded file under the media dir and
// returns its stored name. An absent file (or a non-multipart form) is not
// an error.
func (h *Handler) saveUpload(c *gin.Context, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(h.cfg.Server.MediaDir, name)); err != nil {
		return "", fmt.Errorf("failed to store upload %q: %w", file.Filename, err)
	}
	return name, nil
}

// External account-app destinations. The account collaborator serves these;
// this service only redirects to them.
func authorityProfileURL(authorityID uint) string {
	return fmt.Sprintf("/account/authorities/%d", authorityID)
}

func userProfileURL(username string) string {
	return fmt.Sprintf("/account/users/%s", username)
}
