package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	errx "github.com/terrainnova-ai/server/internal/core/error"
	"github.com/terrainnova-ai/server/internal/model"
	"github.com/terrainnova-ai/server/pkg/postgres"
)

const productColumns = `p.id, p.nombre, p.descripcion, p.precio, p.stock, p."imagenUrl", p."categoriaId", c.nombre AS categoria_nombre`

// productRow mirrors the columns of the backend's producto/categoria join.
type productRow struct {
	ID              int64   `gorm:"column:id"`
	Nombre          string  `gorm:"column:nombre"`
	Descripcion     *string `gorm:"column:descripcion"`
	Precio          float64 `gorm:"column:precio"`
	Stock           int     `gorm:"column:stock"`
	ImagenURL       *string `gorm:"column:imagenUrl"`
	CategoriaID     *int64  `gorm:"column:categoriaId"`
	CategoriaNombre *string `gorm:"column:categoria_nombre"`
}

func (r productRow) toDomain() model.Product {
	p := model.Product{
		ID:           r.ID,
		Name:         r.Nombre,
		Price:        r.Precio,
		Stock:        r.Stock,
		ImageURL:     r.ImagenURL,
		CategoryID:   r.CategoriaID,
		CategoryName: r.CategoriaNombre,
	}
	if r.Descripcion != nil {
		p.Description = *r.Descripcion
	}
	return p
}

type categoryRow struct {
	ID     int64  `gorm:"column:id"`
	Nombre string `gorm:"column:nombre"`
}

// CatalogRepository reads the product catalog owned by the shop backend. It never
// writes.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) products(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("producto AS p").
		Select(productColumns).
		Joins(`LEFT JOIN categoria c ON p."categoriaId" = c.id`)
}

func (r *CatalogRepository) scan(q *gorm.DB) ([]model.Product, error) {
	var rows []productRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, errx.WrapDatabase(err)
	}
	out := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	return r.scan(r.products(ctx).Order("p.nombre"))
}

func (r *CatalogRepository) ProductByID(ctx context.Context, id int64) (*model.Product, error) {
	products, err := r.scan(r.products(ctx).Where("p.id = ?", id).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, errx.NotFound("product not found")
	}
	return &products[0], nil
}

// SearchProducts matches the term against product name, description and category
// name, case-insensitively.
func (r *CatalogRepository) SearchProducts(ctx context.Context, term string) ([]model.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return r.scan(r.products(ctx).
		Where(`LOWER(p.nombre) LIKE ? OR LOWER(p.descripcion) LIKE ? OR LOWER(c.nombre) LIKE ?`, pattern, pattern, pattern).
		Order("p.nombre"))
}

func (r *CatalogRepository) ProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	return r.scan(r.products(ctx).Where(`p."categoriaId" = ?`, categoryID).Order("p.nombre"))
}

func (r *CatalogRepository) ProductsUnderBudget(ctx context.Context, maxPrice float64) ([]model.Product, error) {
	return r.scan(r.products(ctx).Where("p.precio <= ?", maxPrice).Order("p.precio DESC"))
}

// RecommendedProducts returns in-stock products, most expensive first.
func (r *CatalogRepository) RecommendedProducts(ctx context.Context, limit int) ([]model.Product, error) {
	return r.scan(r.products(ctx).Where("p.stock > 0").Order("p.precio DESC").Limit(limit))
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	var rows []categoryRow
	err := r.db.WithContext(ctx).Table("categoria").Select("id, nombre").Order("nombre").Scan(&rows).Error
	if err != nil {
		return nil, errx.WrapDatabase(err)
	}
	out := make([]model.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Category{ID: row.ID, Name: row.Nombre})
	}
	return out, nil
}

func (r *CatalogRepository) Ping(ctx context.Context) error {
	return postgres.Ping(ctx, r.db)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
