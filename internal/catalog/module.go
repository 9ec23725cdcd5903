package catalog

import (
	"net/http"
	"strings"

	apphttp "climas_backend/internal/http"
	"climas_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// ListResponse is the catalog listing returned to quotation editors.
type ListResponse struct {
	Currency string  `json:"currency"`
	Items    []Entry `json:"items"`
}

// Module serves the read-only material catalog.
type Module struct {
	catalog *Catalog
}

// NewModule wraps a loaded catalog.
func NewModule(c *Catalog) *Module {
	if c == nil {
		c = Empty()
	}
	return &Module{catalog: c}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Catalog returns the loaded price list.
func (m *Module) Catalog() *Catalog {
	return m.catalog
}

// RegisterRoutes mounts the catalog routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	rg := ctx.Protected.Group("/catalog")
	rg.GET("", m.list)
	rg.GET("/:code", m.get)
}

func (m *Module) list(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))
	query := strings.ToLower(strings.TrimSpace(c.Query("q")))

	items := make([]Entry, 0)
	for _, e := range m.catalog.Entries() {
		if category != "" && !strings.EqualFold(e.Category, category) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(e.Code+" "+e.Description), query) {
			continue
		}
		items = append(items, e)
	}
	httpkit.OK(c, ListResponse{Currency: m.catalog.Currency(), Items: items})
}

func (m *Module) get(c *gin.Context) {
	entry, ok := m.catalog.Lookup(c.Param("code"))
	if !ok {
		httpkit.Error(c, http.StatusNotFound, "catalog entry not found")
		return
	}
	httpkit.OK(c, entry)
}

var _ apphttp.Module = (*Module)(nil)
