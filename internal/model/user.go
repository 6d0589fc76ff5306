package model

import "time"

// User 表示系统用户。
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                             // 用户 ID
	Name      string    `gorm:"not null" json:"name"`                             // 显示名称
	Email     string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"` // 邮箱（唯一）
	Password  string    `gorm:"not null" json:"-"`                                // bcrypt 哈希
	Role      string    `gorm:"type:varchar(16);default:user" json:"role"`        // 角色: user / admin
	OTP       string    `gorm:"type:varchar(16);column:otp" json:"-"`             // 密码重置验证码
	OTPExpire *time.Time `gorm:"column:otp_expire" json:"-"`                      // 验证码过期时间
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Favorites []Favorite        `gorm:"foreignKey:UserID" json:"-"`
	Views     []ProductView     `gorm:"foreignKey:UserID" json:"-"`
	Comments  []ProductComment  `gorm:"foreignKey:UserID" json:"-"`
	Purchases []ProductPurchase `gorm:"foreignKey:UserID" json:"-"`
}
