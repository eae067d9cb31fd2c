package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"museum-registry-backend/internal/auth"
	"museum-registry-backend/internal/flash"
	"museum-registry-backend/internal/model"
)

type museumForm struct {
	Name        string `form:"name" binding:"required,max=256"`
	Description string `form:"description"`
}

// AddMuseum handles GET/POST /authorities/:id/museums/add.
//
// This is the one mutation guarded by OwnerOnly: staff accounts cannot add
// museums to an authority they do not own. On success it redirects back to
// the same form so the owner can add several museums in a row.
func (h *Handler) AddMuseum(c *gin.Context) {
	authority, ok := h.lookupAuthority(c)
	if !ok {
		return
	}

	if !auth.OwnerOnly(auth.UserFrom(c), authority.OwnerID) {
		h.forbidden(c, "Only the authority owner can add museums.")
		return
	}

	if c.Request.Method == http.MethodGet {
		h.render(c, http.StatusOK, "add_museum.html", gin.H{
			"authority": authority,
		})
		return
	}

	var form museumForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "add_museum.html", gin.H{
			"authority": authority,
			"form":      form,
			"error":     "Please provide a name for the museum.",
		})
		return
	}

	image, err := h.saveUpload(c, "image")
	if err != nil {
		log.Printf("add museum to authority %d: %v", authority.ID, err)
		h.render(c, http.StatusInternalServerError, "add_museum.html", gin.H{
			"authority": authority,
			"form":      form,
			"error":     "Could not store the uploaded image.",
		})
		return
	}

	museum := model.Museum{
		Name:        form.Name,
		Description: form.Description,
		Image:       image,
		AuthorityID: authority.ID,
	}
	if err := h.store.CreateMuseum(c.Request.Context(), &museum); err != nil {
		log.Printf("add museum to authority %d: %v", authority.ID, err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	flash.Success(c, "Museum added to the authority successfully.")
	c.Redirect(http.StatusFound, c.Request.URL.Path)
}
