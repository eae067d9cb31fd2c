package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"museum-registry-backend/internal/auth"
	"museum-registry-backend/internal/flash"
	"museum-registry-backend/internal/model"
	"museum-registry-backend/internal/paginate"
	"museum-registry-backend/internal/store"
)

// authorityForm carries the user-editable authority fields. Owner and type
// are never form-supplied.
type authorityForm struct {
	Name        string `form:"name" binding:"required,max=256"`
	Description string `form:"description"`
}

// AddAuthority handles GET/POST /authorities/add.
func (h *Handler) AddAuthority(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		h.render(c, http.StatusOK, "add_authority.html", nil)
		return
	}

	var form authorityForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "add_authority.html", gin.H{
			"form":  form,
			"error": "Please provide a name for the authority.",
		})
		return
	}

	image, err := h.saveUpload(c, "image")
	if err != nil {
		log.Printf("add authority: %v", err)
		h.render(c, http.StatusInternalServerError, "add_authority.html", gin.H{
			"form":  form,
			"error": "Could not store the uploaded image.",
		})
		return
	}

	defaultType, err := h.store.DefaultAuthorityType(c.Request.Context(), h.cfg.App.DefaultAuthorityTypeID)
	if err != nil {
		if errors.Is(err, store.ErrNoAuthorityTypes) {
			log.Printf("add authority: %v", err)
			h.render(c, http.StatusInternalServerError, "add_authority.html", gin.H{
				"form":  form,
				"error": "Authority types are not configured; contact the administrator.",
			})
			return
		}
		log.Printf("add authority: failed to resolve default type: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	user := auth.UserFrom(c)
	authority := model.Authority{
		Name:        form.Name,
		Description: form.Description,
		Image:       image,
		OwnerID:     user.ID,
		TypeID:      defaultType.ID,
	}
	if err := h.store.CreateAuthority(c.Request.Context(), &authority); err != nil {
		log.Printf("add authority: create failed: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	flash.Success(c, "Authority added successfully.")
	c.Redirect(http.StatusFound, authorityProfileURL(authority.ID))
}

// ListAuthorities handles GET /authorities with an optional type filter and
// page number.
func (h *Handler) ListAuthorities(c *gin.Context) {
	var typeID uint
	selected := c.Query("type")
	if selected != "" {
		if parsed, err := strconv.ParseUint(selected, 10, 32); err == nil {
			typeID = uint(parsed)
		}
	}

	count, err := h.store.CountAuthorities(c.Request.Context(), typeID)
	if err != nil {
		log.Printf("list authorities: count failed: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	page := paginate.Resolve(int(count), h.cfg.App.PageSize, c.Query("page"))
	authorities, err := h.store.ListAuthorities(c.Request.Context(), typeID, page.Offset, page.Limit)
	if err != nil {
		log.Printf("list authorities: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	types, err := h.store.ListAuthorityTypes(c.Request.Context())
	if err != nil {
		log.Printf("list authorities: types failed: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	h.render(c, http.StatusOK, "all_authority.html", gin.H{
		"authorities": authorities,
		"types":       types,
		"selected":    selected,
		"page":        page,
	})
}

// UpdateAuthority handles GET/POST /authorities/:id/edit. Owner or staff only.
func (h *Handler) UpdateAuthority(c *gin.Context) {
	authority, ok := h.lookupAuthority(c)
	if !ok {
		return
	}

	if !auth.OwnerOrStaff(auth.UserFrom(c), authority.OwnerID) {
		h.forbidden(c, "You do not have permission to edit this authority.")
		return
	}

	if c.Request.Method == http.MethodGet {
		h.render(c, http.StatusOK, "add_authority.html", gin.H{
			"authority":   authority,
			"update_mode": true,
		})
		return
	}

	var form authorityForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "add_authority.html", gin.H{
			"authority":   authority,
			"update_mode": true,
			"error":       "Please provide a name for the authority.",
		})
		return
	}

	image, err := h.saveUpload(c, "image")
	if err != nil {
		log.Printf("update authority %d: %v", authority.ID, err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if image == "" {
		image = authority.Image
	}

	updated := model.Authority{
		ID:          authority.ID,
		Name:        form.Name,
		Description: form.Description,
		Image:       image,
	}
	if err := h.store.UpdateAuthority(c.Request.Context(), &updated); err != nil {
		log.Printf("update authority %d: %v", authority.ID, err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	flash.Success(c, "Authority updated successfully.")
	c.Redirect(http.StatusFound, "/authorities")
}

// DeleteAuthority handles POST /authorities/:id/delete. Owner or staff only.
// Museums and their comments, bookings and bookmarks go with it.
func (h *Handler) DeleteAuthority(c *gin.Context) {
	authority, ok := h.lookupAuthority(c)
	if !ok {
		return
	}

	if !auth.OwnerOrStaff(auth.UserFrom(c), authority.OwnerID) {
		h.forbidden(c, "You do not have permission to delete this authority.")
		return
	}

	if err := h.store.DeleteAuthority(c.Request.Context(), authority.ID); err != nil {
		log.Printf("delete authority %d: %v", authority.ID, err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	flash.Success(c, "Authority deleted successfully.")
	c.Redirect(http.StatusFound, "/authorities")
}

// lookupAuthority resolves the :id path parameter, answering 404 itself when
// the authority does not exist.
func (h *Handler) lookupAuthority(c *gin.Context) (*model.Authority, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.notFound(c)
		return nil, false
	}

	authority, err := h.store.GetAuthority(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.notFound(c)
			return nil, false
		}
		log.Printf("lookup authority %d: %v", id, err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return nil, false
	}
	return authority, true
}
