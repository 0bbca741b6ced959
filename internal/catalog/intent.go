package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	logx "github.com/terrainnova-ai/server/pkg/logger"
)

var (
	searchPatterns = []*regexp.Regexp{
		regexp.MustCompile(`busco?\s+(.+)`),
		regexp.MustCompile(`quiero\s+(.+)`),
		regexp.MustCompile(`necesito\s+(.+)`),
		regexp.MustCompile(`tienes?\s+(.+)`),
		regexp.MustCompile(`productos?\s+de\s+(.+)`),
		regexp.MustCompile(`me\s+recomiendan?\s+(.+)`),
		regexp.MustCompile(`(.+)\s+disponible`),
	}
	budgetPatterns = []*regexp.Regexp{
		regexp.MustCompile(`presupuesto\s+de\s+\$?(\d+)`),
		regexp.MustCompile(`tengo\s+\$?(\d+)`),
		regexp.MustCompile(`hasta\s+\$?(\d+)`),
		regexp.MustCompile(`máximo\s+\$?(\d+)`),
		regexp.MustCompile(`con\s+\$?(\d+)`),
	}
	catalogPatterns = []*regexp.Regexp{
		regexp.MustCompile(`productos?\s+disponibles?`),
		regexp.MustCompile(`qué\s+venden?`),
		regexp.MustCompile(`catálogo`),
		regexp.MustCompile(`lista\s+de\s+productos?`),
		regexp.MustCompile(`todo\s+lo\s+que\s+tienen?`),
		regexp.MustCompile(`productos?\s+que\s+ofrecen?`),
	}
	productIDPattern = regexp.MustCompile(`producto\s+(\d+)`)
)

// search terms too vague to query for
var vagueTerms = map[string]struct{}{
	"algo": {}, "ayuda": {}, "información": {}, "que": {}, "para": {},
}

// Snippets inspects a customer message for search, budget, catalog and product-id
// intents and returns the matching catalog excerpts, each tagged for the model.
// Lookup failures are logged and skipped.
func (s *Service) Snippets(ctx context.Context, message string) []string {
	if !s.IsConfigured() {
		return nil
	}
	lower := strings.ToLower(message)
	var out []string

	if term, ok := searchTerm(lower); ok {
		products, err := s.repo.SearchProducts(ctx, term)
		switch {
		case err != nil:
			logx.Warn().Err(err).Str("term", term).Msg("catalog search for prompt failed")
		case len(products) > 0:
			header := fmt.Sprintf("🔍 **Encontré %d producto(s) para '%s':**", len(products), term)
			out = append(out, "[PRODUCTOS ENCONTRADOS]: "+s.formatList(header, products))
		}
	}

	if budget, ok := budgetAmount(lower); ok {
		products, err := s.repo.ProductsUnderBudget(ctx, budget)
		switch {
		case err != nil:
			logx.Warn().Err(err).Float64("budget", budget).Msg("catalog budget lookup for prompt failed")
		case len(products) == 0:
			out = append(out, fmt.Sprintf("[PRODUCTOS EN PRESUPUESTO]: No encontré productos dentro del presupuesto de %s %s.", FormatPrice(budget), s.currency))
		default:
			header := fmt.Sprintf("💰 **Productos dentro de tu presupuesto de %s %s:**", FormatPrice(budget), s.currency)
			out = append(out, "[PRODUCTOS EN PRESUPUESTO]: "+s.formatList(header, products))
		}
	}

	if matchesAny(catalogPatterns, lower) {
		products, err := s.repo.ListProducts(ctx)
		switch {
		case err != nil:
			logx.Warn().Err(err).Msg("catalog listing for prompt failed")
		case len(products) == 0:
			out = append(out, "[CATÁLOGO COMPLETO]: No hay productos disponibles en este momento.")
		default:
			out = append(out, "[CATÁLOGO COMPLETO]: "+s.formatList("🛍️ **PRODUCTOS DISPONIBLES:**", products))
		}
	}

	if id, ok := productID(lower); ok {
		product, err := s.repo.ProductByID(ctx, id)
		if err != nil {
			logx.Debug().Err(err).Int64("product_id", id).Msg("product lookup for prompt failed")
		} else {
			out = append(out, "[PRODUCTO ESPECÍFICO]: "+s.FormatProduct(*product))
		}
	}
	return out
}

// ImageFor returns the image of a product named in the message or the reply, or
// of the product referenced by id ("producto 3").
func (s *Service) ImageFor(ctx context.Context, message, reply string) (string, bool) {
	if !s.IsConfigured() {
		return "", false
	}
	msg := strings.ToLower(message)
	rep := strings.ToLower(reply)

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("product image lookup failed")
		return "", false
	}
	for _, p := range products {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" || p.ImageURL == nil || *p.ImageURL == "" {
			continue
		}
		if strings.Contains(msg, name) || strings.Contains(rep, name) {
			return *p.ImageURL, true
		}
	}

	if id, ok := productID(msg); ok {
		p, err := s.repo.ProductByID(ctx, id)
		if err == nil && p.ImageURL != nil && *p.ImageURL != "" {
			return *p.ImageURL, true
		}
	}
	return "", false
}

func searchTerm(lower string) (string, bool) {
	for _, re := range searchPatterns {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		term := strings.TrimSpace(m[1])
		if _, vague := vagueTerms[term]; vague || len([]rune(term)) <= 2 {
			continue
		}
		return term, true
	}
	return "", false
}

func budgetAmount(lower string) (float64, bool) {
	for _, re := range budgetPatterns {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || v <= 0 {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func productID(lower string) (int64, bool) {
	m := productIDPattern.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	return id, err == nil
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
