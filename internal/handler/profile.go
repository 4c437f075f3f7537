package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/shataev/wanna-track-api/internal/util"
)

type updateProfileReq struct {
	DisplayName     *string `json:"display_name"`
	DefaultCurrency *string `json:"default_currency"`
}

// UpdateProfile edits display name and default currency. Changing the
// default currency only affects how aggregates are reported; stored
// cost rates stay frozen.
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req updateProfileReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
			return
		}

		updates := map[string]interface{}{}
		if req.DisplayName != nil {
			if len(*req.DisplayName) > 64 {
				util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "display name too long")
				return
			}
			updates["display_name"] = *req.DisplayName
		}
		if req.DefaultCurrency != nil {
			if err := util.ValidateCurrency(*req.DefaultCurrency); err != nil {
				util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
				return
			}
			updates["default_currency"] = *req.DefaultCurrency
		}
		if len(updates) == 0 {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "nothing to update")
			return
		}

		if err := db.Model(user).Updates(updates).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to update profile")
			return
		}

		util.Success(c, util.Response{"message": "profile updated"})
	}
}

type changePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword verifies the old password and stores a new hash.
func ChangePassword(db *gorm.DB, bcryptCost int) gin.HandlerFunc {
	if bcryptCost <= 0 {
		bcryptCost = 12
	}
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req changePasswordReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "old password is incorrect")
			return
		}
		if !isStrongPassword(req.NewPassword) {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "password must be 8-32 characters with upper, lower case and a digit")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
		if err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to hash password")
			return
		}

		if err := db.Model(user).Update("password_hash", string(hash)).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to change password")
			return
		}

		util.Success(c, util.Response{"message": "password changed"})
	}
}
