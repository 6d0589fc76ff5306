package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"minishop/internal/model"
	"minishop/internal/pkg/notify"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const otpTTL = 10 * time.Minute

// Handler 提供注册登录与密码重置接口。
type Handler struct {
	db        *gorm.DB
	jwtSecret []byte
	jwtExpire time.Duration
	mailer    notify.Notifier
	logger    *slog.Logger
}

// NewHandler 创建 Auth Handler。
func NewHandler(db *gorm.DB, jwtSecret string, jwtExpire time.Duration, mailer notify.Notifier, logger *slog.Logger) *Handler {
	if jwtExpire <= 0 {
		jwtExpire = 24 * time.Hour
	}
	return &Handler{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		jwtExpire: jwtExpire,
		mailer:    mailer,
		logger:    logger,
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type customClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type userSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func summarize(u *model.User) userSummary {
	return userSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Register 创建新用户。
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Thiếu thông tin đăng ký"})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	var existing model.User
	err := h.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Email đã tồn tại"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
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
		Role:     "user",
	}
	if err := h.db.Create(&user).Error; err != nil {
		h.logger.Error("create user failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}

	h.logger.Info("user registered", slog.String("email", email))
	c.JSON(http.StatusOK, gin.H{"EC": 0, "EM": "Đăng ký thành công", "DT": summarize(&user)})
}

// Login 校验凭证并签发 JWT。
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Thiếu email hoặc mật khẩu"})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	var user model.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"EC": 1, "EM": "Email hoặc mật khẩu không đúng"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"EC": 1, "EM": "Email hoặc mật khẩu không đúng"})
		return
	}

	token, err := h.issueToken(&user)
	if err != nil {
		h.logger.Error("sign token failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}

	h.logger.Info("user logged in", slog.String("email", email), slog.String("role", user.Role))
	c.JSON(http.StatusOK, gin.H{"EC": 0, "EM": "Đăng nhập thành công", "DT": gin.H{
		"access_token": token,
		"user":         summarize(&user),
	}})
}

// Logout 注销。服务端无状态, 直接返回成功。
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"EC": 0, "EM": "Đăng xuất thành công"})
}

// ForgotPassword 生成 OTP 并发送到用户邮箱。
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Thiếu email"})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	var user model.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Email không tồn tại"})
		return
	}

	otp, err := generateOTP(6)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}
	expire := time.Now().Add(otpTTL)
	user.OTP = otp
	user.OTPExpire = &expire
	if err := h.db.Save(&user).Error; err != nil {
		h.logger.Error("save otp failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}

	if h.mailer != nil {
		if err := h.mailer.SendPasswordResetOTP(user.Email, user.Name, otp); err != nil {
			h.logger.Warn("send otp email failed", slog.String("email", email), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Gửi email thất bại"})
			return
		}
	}

	h.logger.Info("password reset otp issued", slog.String("email", email))
	c.JSON(http.StatusOK, gin.H{"EC": 0, "EM": "Đã gửi mã OTP đến email của bạn"})
}

// CheckOTP 校验 OTP 是否有效。
func (h *Handler) CheckOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Thiếu email hoặc OTP"})
		return
	}

	if _, ok := h.validOTPUser(c, req.Email, req.OTP); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"EC": 0, "EM": "OTP hợp lệ"})
}

// ResetPassword 用 OTP 重置密码并清除 OTP。
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		OTP      string `json:"otp" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Thiếu thông tin"})
		return
	}

	user, ok := h.validOTPUser(c, req.Email, req.OTP)
	if !ok {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}
	user.Password = string(hash)
	user.OTP = ""
	user.OTPExpire = nil
	if err := h.db.Save(user).Error; err != nil {
		h.logger.Error("reset password failed", slog.String("email", user.Email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"EC": -1, "EM": "Lỗi server"})
		return
	}

	h.logger.Info("password reset", slog.String("email", user.Email))
	c.JSON(http.StatusOK, gin.H{"EC": 0, "EM": "Đặt lại mật khẩu thành công"})
}

func (h *Handler) validOTPUser(c *gin.Context, email, otp string) (*model.User, bool) {
	email = strings.TrimSpace(strings.ToLower(email))

	var user model.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Email không tồn tại"})
		return nil, false
	}
	if user.OTP == "" || user.OTP != strings.TrimSpace(otp) {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "OTP không đúng"})
		return nil, false
	}
	if user.OTPExpire == nil || time.Now().After(*user.OTPExpire) {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "OTP đã hết hạn"})
		return nil, false
	}
	return &user, true
}

func (h *Handler) issueToken(user *model.User) (string, error) {
	claims := customClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.jwtExpire)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

func generateOTP(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid otp length")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = '0' + (buf[i] % 10)
	}
	return string(buf), nil
}
