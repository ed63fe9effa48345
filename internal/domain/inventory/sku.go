package inventory

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSKU deja el SKU en forma canónica (NFKC, sin espacios en los extremos, mayúsculas)
// para que la unicidad no dependa de cómo se tecleó.
func NormalizeSKU(sku string) string {
	s := norm.NFKC.String(strings.TrimSpace(sku))
	// cases.Caser guarda estado: uno por llamada.
	return cases.Upper(language.Und).String(s)
}
