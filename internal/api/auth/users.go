package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"minishop/internal/model"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ListUsers 返回全部用户, 不含密码与 OTP 字段。
func (h *Handler) ListUsers(c *gin.Context) {
	var users []model.User
	if err := h.db.Select("id", "name", "email", "role", "created_at", "updated_at").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"EC": 0, "EM": "Lấy danh sách người dùng thành công", "DT": users})
}

// GetUser 返回单个用户。
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var user model.User
	err := h.db.Select("id", "name", "email", "role", "created_at", "updated_at").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"EC": 1, "EM": "Không tìm thấy người dùng"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"EC": 0, "EM": "Lấy người dùng thành công", "DT": user})
}

// CreateUser 管理员创建用户, 可指定角色。
func (h *Handler) CreateUser(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Thiếu thông tin người dùng"})
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	var existing model.User
	if err := h.db.Where("email = ?", email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Email đã tồn tại"})
		return
	}

	role := strings.TrimSpace(strings.ToLower(req.Role))
	if role != "admin" {
		role = "user"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}

	user := model.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hash),
		Role:     role,
	}
	if err := h.db.Create(&user).Error; err != nil {
		h.logger.Error("admin create user failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"EC": 0, "EM": "Tạo người dùng thành công", "DT": summarize(&user)})
}

// UpdateUser 更新用户的名称或邮箱。
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Dữ liệu không hợp lệ"})
		return
	}

	var user model.User
	err := h.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"EC": 1, "EM": "Không tìm thấy người dùng"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.TrimSpace(strings.ToLower(*req.Email))
	}
	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"EC": 0, "EM": "Cập nhật người dùng thành công", "DT": summarize(&user)})
}

// UpdateUserRole 更新用户角色。
func (h *Handler) UpdateUserRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Thiếu role"})
		return
	}
	role := strings.TrimSpace(strings.ToLower(req.Role))
	if role != "admin" && role != "user" {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Role không hợp lệ"})
		return
	}

	var user model.User
	err := h.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"EC": 1, "EM": "Không tìm thấy người dùng"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}

	user.Role = role
	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}
	h.logger.Info("user role updated", slog.Uint64("user_id", uint64(user.ID)), slog.String("role", role))
	c.JSON(http.StatusOK, gin.H{"EC": 0, "EM": "Cập nhật quyền thành công", "DT": summarize(&user)})
}

// DeleteUser 删除用户。管理员不能删除自己的账号。
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if actorVal, exists := c.Get("userID"); exists {
		if actor, ok := actorVal.(uint); ok && actor == id {
			c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Không thể xóa tài khoản của chính mình"})
			return
		}
	}

	res := h.db.Delete(&model.User{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"EC": 1, "EM": "Không tìm thấy người dùng"})
		return
	}
	h.logger.Info("user deleted", slog.Uint64("user_id", uint64(id)))
	c.JSON(http.StatusOK, gin.H{"EC": 0, "EM": "Xóa người dùng thành công"})
}

func pathID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "ID không hợp lệ"})
		return 0, false
	}
	return uint(v), true
}
