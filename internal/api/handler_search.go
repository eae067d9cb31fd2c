package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"museum-registry-backend/internal/model"
)

// Search handles GET /search. A blank (or whitespace-only) query returns
// explicitly empty result sets for both kinds; it never matches everything.
func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	authorities := []model.Authority{}
	museums := []model.Museum{}

	if query != "" {
		var err error
		authorities, err = h.store.SearchAuthorities(c.Request.Context(), query)
		if err != nil {
			log.Printf("search %q: authorities failed: %v", query, err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		museums, err = h.store.SearchMuseums(c.Request.Context(), query)
		if err != nil {
			log.Printf("search %q: museums failed: %v", query, err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
	}

	h.render(c, http.StatusOK, "search_results.html", gin.H{
		"query":       query,
		"authorities": authorities,
		"museums":     museums,
	})
}
