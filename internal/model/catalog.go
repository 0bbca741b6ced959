package model

type Product struct {
	ID           int64   `json:"id"`
	Name         string  `json:"nombre"`
	Description  string  `json:"descripcion"`
	Price        float64 `json:"precio"`
	Stock        int     `json:"stock"`
	ImageURL     *string `json:"imagenUrl"`
	CategoryID   *int64  `json:"categoria_id"`
	CategoryName *string `json:"categoria_nombre"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// CatalogListing is the catalog summary rendered into the assistant's system prompt.
type CatalogListing struct {
	Products   []string
	Categories []string
}
