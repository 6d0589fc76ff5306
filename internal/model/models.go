package model

import (
	"time"
)

// Product 表示商城中的一件商品。
//
// ViewCount 和 Rating 是反范式化的近似缓存值，由 refresh 包的定时任务
// 从 ProductView / ProductComment 事件表重新计算，读取时可能滞后。
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"` // 商品唯一标识
	CreatedAt time.Time `json:"createdAt"`            // 创建时间
	UpdatedAt time.Time `json:"updatedAt"`            // 更新时间

	Name      string  `gorm:"not null" json:"name"`                             // 商品名称
	Category  string  `gorm:"type:varchar(191);index;not null" json:"category"` // 分类名称
	Price     int     `gorm:"not null" json:"price"`                            // 价格（单位: VND）
	Thumbnail string  `json:"thumbnail"`                                        // 缩略图链接
	Discount  int     `gorm:"default:0" json:"discount"`                        // 折扣百分比 (0-100)
	ViewCount int     `gorm:"default:0" json:"viewCount"`                       // 浏览量（近似缓存值）
	Rating    float64 `gorm:"type:decimal(3,2);default:0" json:"rating"`        // 平均评分 (0-5，近似缓存值)
	IsActive  bool    `gorm:"default:true" json:"isActive"`                     // 是否上架
	Stock     int     `gorm:"default:0" json:"stock"`                           // 库存数量（购买不扣减）
}

// Category 表示商品分类，独立于商品生命周期，由管理员维护。
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name        string `gorm:"type:varchar(191);uniqueIndex;not null" json:"name"` // 分类名称（唯一）
	Description string `gorm:"type:text" json:"description"`                       // 分类描述
	Thumbnail   string `json:"thumbnail"`                                          // 分类缩略图
}

// Favorite 表示用户收藏的商品，(userId, productId) 唯一。
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	UserID    uint    `gorm:"not null;uniqueIndex:idx_fav_user_product" json:"userId"`
	ProductID uint    `gorm:"not null;uniqueIndex:idx_fav_user_product" json:"productId"`
	Product   Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// ProductView 表示一次商品浏览事件。
//
// 匿名浏览只带 SessionID，登录浏览带 UserID；登录后通过 merge 把
// session 维度的历史归并到用户名下，归并后两个字段可能同时存在。
type ProductView struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	UserID *uint `gorm:"index:idx_view_user_product" json:"userId"` // 浏览者（匿名为 null）

	ProductID uint      `gorm:"not null;index:idx_view_user_product" json:"productId"`
	SessionID string    `gorm:"type:varchar(191);index:idx_view_session_product" json:"sessionId"` // 匿名会话标识
	ViewedAt  time.Time `gorm:"index" json:"viewedAt"`                                             // 浏览时间

	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// ProductComment 表示商品评论，可附带可选评分。
//
// 同一用户可对同一商品发表多条评论，IsApproved 目前无条件为 true。
type ProductComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_comment_product_created" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	UserID     uint     `gorm:"not null;index" json:"userId"`
	ProductID  uint     `gorm:"not null;index:idx_comment_product_created" json:"productId"`
	Comment    string   `gorm:"type:text;not null" json:"comment"`
	Rating     *float64 `gorm:"type:decimal(3,2)" json:"rating"` // 可选评分 (0-5)
	IsApproved bool     `gorm:"default:true" json:"isApproved"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// ProductPurchase 表示一次购买事件。
//
// 购买不会扣减库存，也不更新任何缓存计数，统计全部从事件行聚合。
type ProductPurchase struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	UserID *uint `gorm:"index:idx_purchase_user_product" json:"userId"` // 购买者（匿名为 null）

	ProductID     uint      `gorm:"not null;index:idx_purchase_user_product;index:idx_purchase_product_time" json:"productId"`
	OrderID       *uint     `json:"orderId"` // 关联订单（可选）
	Quantity      int       `gorm:"default:1" json:"quantity"`
	PurchasePrice int       `gorm:"not null" json:"purchasePrice"` // 成交价格
	PurchasedAt   time.Time `gorm:"index:idx_purchase_product_time" json:"purchasedAt"`
}
