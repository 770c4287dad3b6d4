package web

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type joinRotatorRequest struct {
	Username string `json:"username" binding:"required"`
	TxHash   string `json:"txHash"`
}

func (r *routes) rotatorSnapshot(c *gin.Context) {
	snapshot, err := r.deps.Rotator.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, snapshot)
}

func (r *routes) joinRotator(c *gin.Context) {
	var req joinRotatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalid(c, "username is required")
		return
	}

	entry, err := r.deps.Rotator.Join(c.Request.Context(), req.Username, req.TxHash)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"username":  entry.Username,
		"expiresAt": entry.ExpiresAt,
	})
}

// featuredRedirect sends anonymous visitors to a random member's profile
func (r *routes) featuredRedirect(c *gin.Context) {
	target := r.deps.Site.BaseURL + "/start"

	featured, err := r.deps.Rotator.Featured(c.Request.Context())
	if err != nil {
		log.WithError(err).Warn("Featured pick failed, redirecting to start")
	} else if featured != nil {
		target = r.deps.Site.BaseURL + "/u/" + url.PathEscape(featured.Username)
	}

	c.Redirect(http.StatusFound, target)
}
