package catalog

import (
	"context"

	errx "github.com/terrainnova-ai/server/internal/core/error"
	"github.com/terrainnova-ai/server/internal/model"
)

// DefaultRecommendedLimit is used when RecommendedProducts is called with a
// non-positive limit.
const DefaultRecommendedLimit = 5

// Repository is the read-only catalog storage.
type Repository interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ProductByID(ctx context.Context, id int64) (*model.Product, error)
	SearchProducts(ctx context.Context, term string) ([]model.Product, error)
	ProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error)
	ProductsUnderBudget(ctx context.Context, maxPrice float64) ([]model.Product, error)
	RecommendedProducts(ctx context.Context, limit int) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	Ping(ctx context.Context) error
}

// Service exposes the catalog to the HTTP layer and the model gateway. A nil
// repository means the database is not configured; every read then fails with
// errx.ErrNotConfigured.
type Service struct {
	repo     Repository
	currency string
}

func NewService(repo Repository, currency string) *Service {
	if currency == "" {
		currency = "Bs"
	}
	return &Service{repo: repo, currency: currency}
}

func (s *Service) IsConfigured() bool {
	return s != nil && s.repo != nil
}

// Ping checks database reachability.
func (s *Service) Ping(ctx context.Context) error {
	if !s.IsConfigured() {
		return errx.NotConfigured("database")
	}
	return s.repo.Ping(ctx)
}

func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	if !s.IsConfigured() {
		return nil, errx.NotConfigured("database")
	}
	return s.repo.ListProducts(ctx)
}

func (s *Service) ProductByID(ctx context.Context, id int64) (*model.Product, error) {
	if !s.IsConfigured() {
		return nil, errx.NotConfigured("database")
	}
	return s.repo.ProductByID(ctx, id)
}

// SearchProducts requires a term of at least two characters.
func (s *Service) SearchProducts(ctx context.Context, term string) ([]model.Product, error) {
	if len([]rune(term)) < 2 {
		return nil, errx.InvalidInput("search term must be at least 2 characters")
	}
	if !s.IsConfigured() {
		return nil, errx.NotConfigured("database")
	}
	return s.repo.SearchProducts(ctx, term)
}

func (s *Service) ProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	if !s.IsConfigured() {
		return nil, errx.NotConfigured("database")
	}
	return s.repo.ProductsByCategory(ctx, categoryID)
}

func (s *Service) ProductsUnderBudget(ctx context.Context, maxPrice float64) ([]model.Product, error) {
	if maxPrice <= 0 {
		return nil, errx.InvalidInput("budget must be positive")
	}
	if !s.IsConfigured() {
		return nil, errx.NotConfigured("database")
	}
	return s.repo.ProductsUnderBudget(ctx, maxPrice)
}

func (s *Service) RecommendedProducts(ctx context.Context, limit int) ([]model.Product, error) {
	if !s.IsConfigured() {
		return nil, errx.NotConfigured("database")
	}
	if limit <= 0 {
		limit = DefaultRecommendedLimit
	}
	return s.repo.RecommendedProducts(ctx, limit)
}

func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	if !s.IsConfigured() {
		return nil, errx.NotConfigured("database")
	}
	return s.repo.ListCategories(ctx)
}

// PromptListing summarizes the live catalog for the system prompt.
func (s *Service) PromptListing(ctx context.Context) (model.CatalogListing, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return model.CatalogListing{}, err
	}
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return model.CatalogListing{}, err
	}
	listing := model.CatalogListing{
		Products:   make([]string, 0, len(products)),
		Categories: make([]string, 0, len(categories)),
	}
	for _, p := range products {
		listing.Products = append(listing.Products, s.listingLine(p))
	}
	for _, c := range categories {
		listing.Categories = append(listing.Categories, c.Name)
	}
	return listing, nil
}
