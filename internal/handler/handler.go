package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shataev/wanna-track-api/internal/models"
	"github.com/shataev/wanna-track-api/internal/util"
)

// currentUser pulls the authenticated user placed into the context by
// the auth middleware. On failure it writes the error response itself
// and returns false.
func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get("currentUser")
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return nil, false
	}
	return user, true
}
