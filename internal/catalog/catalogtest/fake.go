// Package catalogtest provides an in-memory catalog repository for tests.
package catalogtest

import (
	"context"
	"sort"
	"strings"

	errx "github.com/terrainnova-ai/server/internal/core/error"
	"github.com/terrainnova-ai/server/internal/model"
)

type Repository struct {
	Products   []model.Product
	Categories []model.Category
	// Err, when set, is returned by every call.
	Err error
	// Calls counts repository calls by method name.
	Calls map[string]int
}

func (r *Repository) hit(name string) error {
	if r.Calls == nil {
		r.Calls = map[string]int{}
	}
	r.Calls[name]++
	return r.Err
}

func (r *Repository) ListProducts(context.Context) ([]model.Product, error) {
	if err := r.hit("ListProducts"); err != nil {
		return nil, err
	}
	return append([]model.Product(nil), r.Products...), nil
}

func (r *Repository) ProductByID(_ context.Context, id int64) (*model.Product, error) {
	if err := r.hit("ProductByID"); err != nil {
		return nil, err
	}
	for _, p := range r.Products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, errx.NotFound("product not found")
}

func (r *Repository) SearchProducts(_ context.Context, term string) ([]model.Product, error) {
	if err := r.hit("SearchProducts"); err != nil {
		return nil, err
	}
	term = strings.ToLower(term)
	var out []model.Product
	for _, p := range r.Products {
		category := ""
		if p.CategoryName != nil {
			category = *p.CategoryName
		}
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) ||
			strings.Contains(strings.ToLower(category), term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Repository) ProductsByCategory(_ context.Context, categoryID int64) ([]model.Product, error) {
	if err := r.hit("ProductsByCategory"); err != nil {
		return nil, err
	}
	var out []model.Product
	for _, p := range r.Products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Repository) ProductsUnderBudget(_ context.Context, maxPrice float64) ([]model.Product, error) {
	if err := r.hit("ProductsUnderBudget"); err != nil {
		return nil, err
	}
	var out []model.Product
	for _, p := range r.Products {
		if p.Price <= maxPrice {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	return out, nil
}

func (r *Repository) RecommendedProducts(_ context.Context, limit int) ([]model.Product, error) {
	if err := r.hit("RecommendedProducts"); err != nil {
		return nil, err
	}
	var out []model.Product
	for _, p := range r.Products {
		if p.InStock() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repository) ListCategories(context.Context) ([]model.Category, error) {
	if err := r.hit("ListCategories"); err != nil {
		return nil, err
	}
	return append([]model.Category(nil), r.Categories...), nil
}

func (r *Repository) Ping(context.Context) error {
	return r.hit("Ping")
}

// Sample returns a small compost catalog.
func Sample() *Repository {
	abonos := "Abonos"
	premiumImg := "https://cdn.terrainnova.bo/premium.jpg"
	catID := int64(1)
	return &Repository{
		Products: []model.Product{
			{ID: 1, Name: "Compost Premium", Description: "Abono orgánico para huertos", Price: 250, Stock: 10, ImageURL: &premiumImg, CategoryID: &catID, CategoryName: &abonos},
			{ID: 2, Name: "Compost Básico", Description: "Ideal para áreas grandes", Price: 150, Stock: 0, CategoryID: &catID, CategoryName: &abonos},
			{ID: 3, Name: "Humus de Lombriz", Description: "Fertilizante natural", Price: 1200, Stock: 3},
		},
		Categories: []model.Category{{ID: 1, Name: "Abonos"}},
	}
}
