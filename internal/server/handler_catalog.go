package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/terrainnova-ai/server/internal/model"
)

func productsBody(products []model.Product) gin.H {
	if products == nil {
		products = []model.Product{}
	}
	return gin.H{"productos": products, "total": len(products)}
}

func (h *handler) listProducts(c *gin.Context) {
	products, err := h.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, productsBody(products))
}

func (h *handler) searchProducts(c *gin.Context) {
	q := c.Query("q")
	products, err := h.Catalog.SearchProducts(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	body := productsBody(products)
	body["consulta"] = q
	c.JSON(http.StatusOK, body)
}

func (h *handler) productByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := h.Catalog.ProductByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *handler) listCategories(c *gin.Context) {
	categories, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"categorias": categories, "total": len(categories)})
}

func (h *handler) productsByCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	products, err := h.Catalog.ProductsByCategory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, productsBody(products))
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
