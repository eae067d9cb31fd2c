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
	"museum-registry-backend/internal/notification"
)

// AddBooking handles /museums/:id/book. Idempotent per (user, museum): a
// repeat booking reports "already booked" instead of creating a duplicate.
func (h *Handler) AddBooking(c *gin.Context) {
	museum, ok := h.lookupMuseum(c)
	if !ok {
		return
	}
	user := auth.UserFrom(c)

	created, err := h.store.GetOrCreateBooking(c.Request.Context(), user.ID, museum.ID)
	if err != nil {
		log.Printf("booking museum %d for user %d: %v", museum.ID, user.ID, err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if created {
		flash.Success(c, "Museum booked successfully!")
		h.dispatch(notification.Event{Kind: notification.EventBooking, MuseumID: museum.ID})
	} else {
		flash.Info(c, "You have already booked this museum.")
	}

	c.Redirect(http.StatusFound, userProfileURL(user.Username))
}

// AddBookmark handles /museums/:id/bookmark with the same idempotence as
// AddBooking. The redirect target is best-effort: back to the referring page
// when the client sent one, otherwise home.
func (h *Handler) AddBookmark(c *gin.Context) {
	museum, ok := h.lookupMuseum(c)
	if !ok {
		return
	}
	user := auth.UserFrom(c)

	created, err := h.store.GetOrCreateBookmark(c.Request.Context(), user.ID, museum.ID)
	if err != nil {
		log.Printf("bookmarking museum %d for user %d: %v", museum.ID, user.ID, err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	if created {
		flash.Success(c, "Museum added to your bookmarks!")
	} else {
		flash.Info(c, "This museum is already in your bookmarks.")
	}

	target := c.Request.Referer()
	if target == "" {
		target = "/"
	}
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) lookupMuseum(c *gin.Context) (*model.Museum, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.notFound(c)
		return nil, false
	}

	museum, err := h.store.GetMuseum(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.notFound(c)
			return nil, false
		}
		log.Printf("lookup museum %d: %v", id, err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return nil, false
	}
	return museum, true
}
