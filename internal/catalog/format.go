package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/terrainnova-ai/server/internal/model"
)

const noCategory = "Sin categoría"

// FormatProduct renders a product the way the assistant presents it to customers.
func (s *Service) FormatProduct(p model.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌱 **%s**\n", p.Name)
	fmt.Fprintf(&b, "💰 Precio: %s %s\n", FormatPrice(p.Price), s.currency)
	fmt.Fprintf(&b, "📦 Stock: %s\n", stockLabel(p, "✅ En stock"))
	fmt.Fprintf(&b, "🏷️ Categoría: %s\n", categoryName(p))
	fmt.Fprintf(&b, "📝 Descripción: %s\n", p.Description)
	return b.String()
}

func (s *Service) formatList(header string, products []model.Product) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for _, p := range products {
		b.WriteString(s.FormatProduct(p))
		b.WriteString("\n---\n")
	}
	return b.String()
}

func (s *Service) listingLine(p model.Product) string {
	return fmt.Sprintf("• %s - %s %s | Categoría: %s | Stock: %s | Descripción: %s",
		p.Name, FormatPrice(p.Price), s.currency, categoryName(p), stockLabel(p, "✅ Disponible"), p.Description)
}

func stockLabel(p model.Product, available string) string {
	if p.InStock() {
		return available
	}
	return "❌ Agotado"
}

func categoryName(p model.Product) string {
	if p.CategoryName == nil || *p.CategoryName == "" {
		return noCategory
	}
	return *p.CategoryName
}

// FormatPrice rounds to whole units and groups thousands with commas.
func FormatPrice(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + b.String()
}
