package api

import (
	"net/http"

	"minishop/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

type addCommentRequest struct {
	Comment string   `json:"comment"`
	Rating  *float64 `json:"rating"`
}

func (s *Server) handleAddComment(c *gin.Context) {
	userID := middleware.UserID(c)
	productID, ok := uintParam(c, "productId")
	if !ok {
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Dữ liệu không hợp lệ"})
		return
	}

	entry, err := s.comments.Add(c.Request.Context(), *userID, productID, req.Comment, req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Thêm bình luận thành công", entry)
}

func (s *Server) handleListComments(c *gin.Context) {
	productID, ok := uintParam(c, "productId")
	if !ok {
		return
	}
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "limit", 10)

	result, err := s.comments.List(c.Request.Context(), productID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy danh sách bình luận thành công", result)
}

func (s *Server) handleDeleteComment(c *gin.Context) {
	userID := middleware.UserID(c)
	commentID, ok := uintParam(c, "commentId")
	if !ok {
		return
	}
	role, _ := c.Get("role")
	roleStr, _ := role.(string)

	if err := s.comments.Delete(c.Request.Context(), commentID, *userID, roleStr); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Xóa bình luận thành công", nil)
}

func (s *Server) handleProductStats(c *gin.Context) {
	productID, ok := uintParam(c, "productId")
	if !ok {
		return
	}
	stats, err := s.comments.ProductStats(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy thống kê sản phẩm thành công", stats)
}
