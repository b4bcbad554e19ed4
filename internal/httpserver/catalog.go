package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"lavibaby-storefront/internal/domain"
)

func (h *handlers) listProducts(c *gin.Context) {
	list, err := h.deps.ProductSvc.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": toProductResponses(list)})
}

func (h *handlers) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.deps.ProductSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*p))
}

func (h *handlers) listCategories(c *gin.Context) {
	cats, err := h.deps.ProductSvc.Categories(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

// productRequest is what the admin product form posts. Prices are reais and
// may arrive as numbers or strings.
type productRequest struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Image         string          `json:"image"`
	Category      string          `json:"category"`
	Sizes         []string        `json:"sizes"`
	Colors        []string        `json:"colors"`
	Rating        float64         `json:"rating"`
	Description   string          `json:"description"`
	Stock         int             `json:"stock"`
}

func (r productRequest) toDomain(id int64) domain.Product {
	return domain.Product{
		ID:            id,
		Name:          r.Name,
		Price:         domain.MoneyFromDecimal(r.Price),
		OriginalPrice: domain.MoneyFromDecimal(r.OriginalPrice),
		Image:         r.Image,
		Category:      r.Category,
		Sizes:         r.Sizes,
		Colors:        r.Colors,
		Rating:        r.Rating,
		Description:   r.Description,
		Stock:         r.Stock,
	}
}

// saveProduct serves both POST /admin/products and PUT /admin/products/:id.
func (h *handlers) saveProduct(c *gin.Context) {
	var id int64
	if c.Param("id") != "" {
		var ok bool
		if id, ok = pathID(c, "id"); !ok {
			return
		}
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados do produto inválidos")
		return
	}
	saved, err := h.deps.ProductSvc.Save(c.Request.Context(), req.toDomain(id))
	if err != nil {
		h.writeError(c, err)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	c.JSON(status, toProductResponse(*saved))
}

func (h *handlers) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.deps.ProductSvc.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) getSettings(c *gin.Context) {
	s, err := h.deps.AccountSvc.Settings(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) updateSettings(c *gin.Context) {
	var req domain.SiteSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Configurações inválidas")
		return
	}
	s, err := h.deps.AccountSvc.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) lookupPostal(c *gin.Context) {
	addr, err := h.deps.Postal.Lookup(c.Request.Context(), c.Param("cep"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, addr)
}

// pathID parses a positive integer path parameter, writing a 400 when it is
// not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "ID inválido")
		return 0, false
	}
	return id, true
}
