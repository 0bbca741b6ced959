package catalog_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrainnova-ai/server/internal/catalog"
	"github.com/terrainnova-ai/server/internal/catalog/catalogtest"
	errx "github.com/terrainnova-ai/server/internal/core/error"
)

func TestServiceNotConfigured(t *testing.T) {
	s := catalog.NewService(nil, "")
	ctx := context.Background()

	assert.False(t, s.IsConfigured())
	_, err := s.ListProducts(ctx)
	assert.ErrorIs(t, err, errx.ErrNotConfigured)
	assert.ErrorIs(t, s.Ping(ctx), errx.ErrNotConfigured)
	assert.Nil(t, s.Snippets(ctx, "quiero compost"))

	_, ok := s.ImageFor(ctx, "foto del compost premium", "")
	assert.False(t, ok)
}

func TestSearchRequiresTwoCharacters(t *testing.T) {
	repo := catalogtest.Sample()
	s := catalog.NewService(repo, "Bs")

	_, err := s.SearchProducts(context.Background(), "c")
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrInvalidInput)
	assert.Zero(t, repo.Calls["SearchProducts"])

	got, err := s.SearchProducts(context.Background(), "compost")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRecommendedDefaultsLimit(t *testing.T) {
	s := catalog.NewService(catalogtest.Sample(), "Bs")

	got, err := s.RecommendedProducts(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Humus de Lombriz", got[0].Name)
}

func TestFormatProduct(t *testing.T) {
	repo := catalogtest.Sample()
	s := catalog.NewService(repo, "Bs")

	out := s.FormatProduct(repo.Products[2])
	assert.Contains(t, out, "**Humus de Lombriz**")
	assert.Contains(t, out, "1,200 Bs")
	assert.Contains(t, out, "Sin categoría")
	assert.Contains(t, out, "En stock")

	assert.Contains(t, s.FormatProduct(repo.Products[1]), "Agotado")
}

func TestFormatPrice(t *testing.T) {
	cases := map[float64]string{
		0:        "0",
		150:      "150",
		1200:     "1,200",
		1234567:  "1,234,567",
		99.6:     "100",
		-2500.25: "-2,500",
	}
	for in, want := range cases {
		assert.Equal(t, want, catalog.FormatPrice(in), "price %v", in)
	}
}

func TestSnippets(t *testing.T) {
	ctx := context.Background()
	s := catalog.NewService(catalogtest.Sample(), "Bs")

	t.Run("search intent", func(t *testing.T) {
		got := s.Snippets(ctx, "Hola, busco compost")
		require.Len(t, got, 1)
		assert.True(t, strings.HasPrefix(got[0], "[PRODUCTOS ENCONTRADOS]"))
		assert.Contains(t, got[0], "Compost Premium")
	})

	t.Run("vague term ignored", func(t *testing.T) {
		assert.Empty(t, s.Snippets(ctx, "quiero ayuda"))
	})

	t.Run("budget intent", func(t *testing.T) {
		got := s.Snippets(ctx, "mi presupuesto de 200")
		require.Len(t, got, 1)
		assert.Contains(t, got[0], "[PRODUCTOS EN PRESUPUESTO]")
		assert.Contains(t, got[0], "Compost Básico")
		assert.NotContains(t, got[0], "Compost Premium")
	})

	t.Run("catalog intent", func(t *testing.T) {
		got := s.Snippets(ctx, "¿me muestras el catálogo?")
		require.Len(t, got, 1)
		assert.Contains(t, got[0], "[CATÁLOGO COMPLETO]")
	})

	t.Run("product id", func(t *testing.T) {
		got := s.Snippets(ctx, "info del producto 3")
		require.Len(t, got, 1)
		assert.Contains(t, got[0], "[PRODUCTO ESPECÍFICO]")
		assert.Contains(t, got[0], "Humus de Lombriz")
	})

	t.Run("greeting has no snippets", func(t *testing.T) {
		assert.Empty(t, s.Snippets(ctx, "Hola"))
	})
}

func TestSnippetsSkipFailures(t *testing.T) {
	repo := catalogtest.Sample()
	repo.Err = errors.New("connection refused")
	s := catalog.NewService(repo, "Bs")

	assert.Empty(t, s.Snippets(context.Background(), "busco compost con 300"))
}

func TestImageFor(t *testing.T) {
	ctx := context.Background()
	s := catalog.NewService(catalogtest.Sample(), "Bs")

	url, ok := s.ImageFor(ctx, "quiero ver una foto", "Te recomiendo el Compost Premium")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.terrainnova.bo/premium.jpg", url)

	url, ok = s.ImageFor(ctx, "foto del producto 1", "")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.terrainnova.bo/premium.jpg", url)

	_, ok = s.ImageFor(ctx, "foto del producto 3", "")
	assert.False(t, ok)
}

func TestPromptListing(t *testing.T) {
	s := catalog.NewService(catalogtest.Sample(), "Bs")

	listing, err := s.PromptListing(context.Background())
	require.NoError(t, err)
	require.Len(t, listing.Products, 3)
	assert.Contains(t, listing.Products[0], "Compost Premium - 250 Bs")
	assert.Equal(t, []string{"Abonos"}, listing.Categories)
}
