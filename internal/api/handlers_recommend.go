package api

import (
	"strconv"
	"strings"

	"minishop/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

const defaultRecommendLimit = 8

func (s *Server) handlePopularProducts(c *gin.Context) {
	limit := intQuery(c, "limit", defaultRecommendLimit)
	exclude := parseIDList(c.Query("excludeIds"))

	products, err := s.engine.Popular(c.Request.Context(), limit, exclude)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy sản phẩm nổi bật thành công", gin.H{
		"products": products,
		"total":    len(products),
	})
}

// handleRecommendedProducts 个性化推荐。匿名请求退化为热门列表。
func (s *Server) handleRecommendedProducts(c *gin.Context) {
	limit := intQuery(c, "limit", defaultRecommendLimit)
	products, err := s.engine.Recommended(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy sản phẩm gợi ý thành công", gin.H{
		"products": products,
		"total":    len(products),
	})
}

func (s *Server) handleSimilarProducts(c *gin.Context) {
	productID, ok := uintParam(c, "productId")
	if !ok {
		return
	}
	limit := intQuery(c, "limit", defaultRecommendLimit)

	products, err := s.engine.Similar(c.Request.Context(), productID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy sản phẩm tương tự thành công", gin.H{
		"products": products,
		"total":    len(products),
	})
}

func (s *Server) handleRecentlyViewed(c *gin.Context) {
	limit := intQuery(c, "limit", defaultRecommendLimit)
	exclude := uint(intQuery(c, "excludeProductId", 0))

	products, err := s.engine.RecentlyViewed(c.Request.Context(), middleware.UserID(c), middleware.SessionID(c), exclude, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy sản phẩm đã xem gần đây thành công", products)
}

// parseIDList 解析逗号分隔的 id 列表, 非法片段跳过。
func parseIDList(raw string) []uint {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil || v == 0 {
			continue
		}
		ids = append(ids, uint(v))
	}
	return ids
}
