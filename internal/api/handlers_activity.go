package api

import (
	"net/http"
	"strconv"

	"minishop/internal/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type recordViewRequest struct {
	ProductID uint   `json:"productId"`
	SessionID string `json:"sessionId"`
}

// handleRecordView 记录一次商品浏览。
// 匿名请求没有会话标识时服务端生成一个并在响应中回传,
// 前端应保存该标识用于后续请求。
func (s *Server) handleRecordView(c *gin.Context) {
	var req recordViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Dữ liệu không hợp lệ"})
		return
	}

	userID := middleware.UserID(c)
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = middleware.SessionID(c)
	}
	if userID == nil && sessionID == "" {
		sessionID = "session_" + uuid.NewString()
	}

	view, err := s.views.RecordView(c.Request.Context(), userID, req.ProductID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Ghi nhận lượt xem thành công", gin.H{
		"id":        view.ID,
		"productId": view.ProductID,
		"sessionId": view.SessionID,
		"viewedAt":  view.ViewedAt,
	})
}

// handleListViewedProducts 返回当前身份最近浏览过的商品。
func (s *Server) handleListViewedProducts(c *gin.Context) {
	userID := middleware.UserID(c)
	sessionID := middleware.SessionID(c)
	limit := intQuery(c, "limit", s.cfg.App.DefaultPageSize)

	products, err := s.views.ListViewedProducts(c.Request.Context(), userID, sessionID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy danh sách sản phẩm đã xem thành công", products)
}

// handleMergeSession 把匿名会话的浏览历史归并到当前登录用户。
func (s *Server) handleMergeSession(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"EC": 1, "EM": "Bạn chưa đăng nhập"})
		return
	}

	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Thiếu sessionId"})
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = middleware.SessionID(c)
	}

	merged, err := s.views.MergeSessionToUser(c.Request.Context(), *userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Gộp dữ liệu phiên thành công", gin.H{"mergedViews": merged})
}

type recordPurchaseRequest struct {
	ProductID     uint  `json:"productId"`
	OrderID       *uint `json:"orderId"`
	Quantity      int   `json:"quantity"`
	PurchasePrice int   `json:"purchasePrice"`
}

// handleRecordPurchase 记录一次购买事件。不扣减库存。
func (s *Server) handleRecordPurchase(c *gin.Context) {
	var req recordPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Dữ liệu không hợp lệ"})
		return
	}

	purchase, err := s.purchases.RecordPurchase(c.Request.Context(), middleware.UserID(c), req.ProductID, req.OrderID, req.Quantity, req.PurchasePrice)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Ghi nhận mua hàng thành công", purchase)
}

// handlePurchaseCounts 返回所有商品的购买数量合计。
func (s *Server) handlePurchaseCounts(c *gin.Context) {
	counts, err := s.purchases.AllPurchaseCounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy số lượng mua thành công", gin.H{"counts": counts})
}

// handlePurchaseCount 返回单个商品的购买数量合计。
func (s *Server) handlePurchaseCount(c *gin.Context) {
	productID, ok := uintParam(c, "productId")
	if !ok {
		return
	}
	total, err := s.purchases.PurchaseCount(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy số lượng mua thành công", gin.H{"productId": productID, "purchaseCount": total})
}

type favoriteRequest struct {
	ProductID uint `json:"productId"`
}

func (s *Server) handleAddFavorite(c *gin.Context) {
	userID := middleware.UserID(c)
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Thiếu productId"})
		return
	}

	favorite, err := s.favorites.Add(c.Request.Context(), *userID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Thêm vào yêu thích thành công", favorite)
}

func (s *Server) handleRemoveFavorite(c *gin.Context) {
	userID := middleware.UserID(c)
	productID, ok := uintParam(c, "productId")
	if !ok {
		return
	}

	if err := s.favorites.Remove(c.Request.Context(), *userID, productID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Xóa khỏi yêu thích thành công", nil)
}

func (s *Server) handleListFavorites(c *gin.Context) {
	userID := middleware.UserID(c)
	products, err := s.favorites.List(c.Request.Context(), *userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy danh sách yêu thích thành công", products)
}

func (s *Server) handleFavoriteStatus(c *gin.Context) {
	userID := middleware.UserID(c)
	productID, ok := uintParam(c, "productId")
	if !ok {
		return
	}

	favorited, err := s.favorites.Status(c.Request.Context(), *userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy trạng thái yêu thích thành công", gin.H{"isFavorite": favorited})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "ID không hợp lệ"})
		return 0, false
	}
	return uint(v), true
}
