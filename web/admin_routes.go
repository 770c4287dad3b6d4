package web

import (
	"wealthreactor/application/dto"
	"wealthreactor/domain/entities"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type adminRotatorRequest struct {
	Username string `json:"username" binding:"required"`
	Active   *bool  `json:"active"`
}

func (r *routes) adminUsers(c *gin.Context) {
	users, err := r.deps.Users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"users": dto.UsersToDTO(users)})
}

// adminSetActive starts or expires a member's lease
func (r *routes) adminSetActive(c *gin.Context) {
	var req adminRotatorRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		abortInvalid(c, "username and active are required")
		return
	}

	entry, err := r.deps.Rotator.SetActive(c.Request.Context(), req.Username, *req.Active)
	if err != nil {
		respondError(c, err)
		return
	}
	r.audit(c, "set_active", req.Username)
	respondOK(c, rotatorEntryData(entry))
}

func (r *routes) adminAddToRotator(c *gin.Context) {
	var req adminRotatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalid(c, "username is required")
		return
	}

	entry, err := r.deps.Rotator.Add(c.Request.Context(), req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	r.audit(c, "add", req.Username)
	respondOK(c, rotatorEntryData(entry))
}

func (r *routes) adminRemoveFromRotator(c *gin.Context) {
	var req adminRotatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortInvalid(c, "username is required")
		return
	}

	if err := r.deps.Rotator.Remove(c.Request.Context(), req.Username); err != nil {
		respondError(c, err)
		return
	}
	r.audit(c, "remove", req.Username)
	respondOK(c, gin.H{"username": req.Username, "removed": true})
}

func (r *routes) audit(c *gin.Context, action, username string) {
	log.WithFields(log.Fields{
		"operator": c.GetString(operatorKey),
		"action":   action,
		"username": username,
	}).Info("Admin rotator change")
}

func rotatorEntryData(entry *entities.RotatorEntry) any {
	if entry == nil {
		return nil
	}
	return dto.RotatorEntryToDTO(entry)
}
