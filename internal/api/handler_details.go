package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"museum-registry-backend/internal/auth"
	"museum-registry-backend/internal/flash"
	"museum-registry-backend/internal/model"
	"museum-registry-backend/internal/notification"
	"museum-registry-backend/internal/paginate"
)

type commentForm struct {
	Comment  string `form:"comment" binding:"required"`
	Rating   int    `form:"rating" binding:"required,min=1,max=5"`
	MuseumID uint   `form:"museum_id" binding:"required"`
}

// museumWithComments pairs a museum with its newest-first comment list for
// the detail page.
type museumWithComments struct {
	Museum   model.Museum
	Comments []model.MuseumComment
}

// Details handles GET/POST /authorities/:id. GET renders the authority with
// its museums, each museum's comments and a paginated feed of all comments
// across the authority. POST submits a new comment and redirects back
// (post/redirect/get).
func (h *Handler) Details(c *gin.Context) {
	authority, ok := h.lookupAuthority(c)
	if !ok {
		return
	}

	if c.Request.Method == http.MethodPost {
		h.submitComment(c, authority)
		return
	}

	museums, err := h.store.MuseumsByAuthority(c.Request.Context(), authority.ID)
	if err != nil {
		log.Printf("details %d: museums failed: %v", authority.ID, err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	paired := make([]museumWithComments, 0, len(museums))
	for _, museum := range museums {
		comments, err := h.store.CommentsByMuseum(c.Request.Context(), museum.ID)
		if err != nil {
			log.Printf("details %d: comments for museum %d failed: %v", authority.ID, museum.ID, err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		paired = append(paired, museumWithComments{Museum: museum, Comments: comments})
	}

	count, err := h.store.CountCommentsByAuthority(c.Request.Context(), authority.ID)
	if err != nil {
		log.Printf("details %d: comment count failed: %v", authority.ID, err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	page := paginate.Resolve(int(count), h.cfg.App.PageSize, c.Query("page"))
	feed, err := h.store.CommentsByAuthority(c.Request.Context(), authority.ID, page.Offset, page.Limit)
	if err != nil {
		log.Printf("details %d: comment feed failed: %v", authority.ID, err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	h.render(c, http.StatusOK, "details.html", gin.H{
		"authority":             authority,
		"museums":               museums,
		"museums_with_comments": paired,
		"comments_page":         feed,
		"page":                  page,
	})
}

// submitComment handles the POST half of the detail page. Anonymous
// submissions redirect to sign-in without persisting anything.
func (h *Handler) submitComment(c *gin.Context, authority *model.Authority) {
	user := auth.UserFrom(c)
	if user == nil {
		c.Redirect(http.StatusFound, h.cfg.Auth.SignInURL)
		return
	}

	detailsURL := fmt.Sprintf("/authorities/%d", authority.ID)

	var form commentForm
	if err := c.ShouldBind(&form); err != nil {
		flash.Error(c, "Comments need text and a rating between 1 and 5.")
		c.Redirect(http.StatusFound, detailsURL)
		return
	}

	museum, err := h.store.GetMuseum(c.Request.Context(), form.MuseumID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.notFound(c)
			return
		}
		log.Printf("submit comment: museum %d lookup failed: %v", form.MuseumID, err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	comment := model.MuseumComment{
		MuseumID: museum.ID,
		UserID:   user.ID,
		Comment:  form.Comment,
		Rating:   form.Rating,
	}
	if err := h.store.CreateComment(c.Request.Context(), &comment); err != nil {
		log.Printf("submit comment: create failed: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	h.dispatch(notification.Event{Kind: notification.EventComment, MuseumID: museum.ID})
	c.Redirect(http.StatusFound, detailsURL)
}
