package api

import (
	"net/http"
	"strconv"

	"minishop/internal/catalog"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListProducts(c *gin.Context) {
	page, pageSize := s.pageParams(c)
	category := c.Query("category")

	result, err := s.catalog.ListProducts(c.Request.Context(), category, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy danh sách sản phẩm thành công", result)
}

func (s *Server) handleAllProducts(c *gin.Context) {
	products, err := s.catalog.AllProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy tất cả sản phẩm thành công", products)
}

func (s *Server) handleGetProduct(c *gin.Context) {
	productID, ok := uintParam(c, "productId")
	if !ok {
		return
	}
	product, err := s.catalog.GetProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy sản phẩm thành công", product)
}

func (s *Server) handleSearchProducts(c *gin.Context) {
	products, err := s.catalog.SearchProducts(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Tìm kiếm sản phẩm thành công", products)
}

// handleFilterProducts 按 query 参数筛选商品, 缺省字段不参与过滤。
func (s *Server) handleFilterProducts(c *gin.Context) {
	f := catalog.Filter{
		Category:   c.Query("category"),
		OnlyActive: c.Query("isActive") == "true",
	}
	if v := c.Query("priceMin"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			f.PriceMin = &i
		}
	}
	if v := c.Query("priceMax"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			f.PriceMax = &i
		}
	}
	if v := c.Query("discountMin"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			f.DiscountMin = &i
		}
	}
	if v := c.Query("viewCountMin"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			f.ViewCountMin = &i
		}
	}
	if v := c.Query("ratingMin"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			f.RatingMin = &r
		}
	}

	products, err := s.catalog.FilterProducts(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lọc sản phẩm thành công", products)
}

func (s *Server) handleCreateProduct(c *gin.Context) {
	var in catalog.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Dữ liệu không hợp lệ"})
		return
	}
	product, err := s.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Tạo sản phẩm thành công", product)
}

func (s *Server) handleUpdateProduct(c *gin.Context) {
	productID, ok := uintParam(c, "productId")
	if !ok {
		return
	}
	var in catalog.ProductUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Dữ liệu không hợp lệ"})
		return
	}
	product, err := s.catalog.UpdateProduct(c.Request.Context(), productID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Cập nhật sản phẩm thành công", product)
}

func (s *Server) handleDeleteProduct(c *gin.Context) {
	productID, ok := uintParam(c, "productId")
	if !ok {
		return
	}
	if err := s.catalog.DeleteProduct(c.Request.Context(), productID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Xóa sản phẩm thành công", nil)
}

func (s *Server) handleListCategories(c *gin.Context) {
	categories, err := s.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy danh sách danh mục thành công", categories)
}

func (s *Server) handleGetCategory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	category, err := s.catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Lấy danh mục thành công", category)
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var in catalog.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Dữ liệu không hợp lệ"})
		return
	}
	category, err := s.catalog.CreateCategory(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Tạo danh mục thành công", category)
}

func (s *Server) handleUpdateCategory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var in catalog.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"EC": 1, "EM": "Dữ liệu không hợp lệ"})
		return
	}
	category, err := s.catalog.UpdateCategory(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Cập nhật danh mục thành công", category)
}

func (s *Server) handleDeleteCategory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := s.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "Xóa danh mục thành công", nil)
}
