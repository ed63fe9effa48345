// seed_catalog genera el script SQL para poblar proveedores y categorías
// a partir de un CSV exportado del sistema de compras.
//
// Formato (con cabecera): tipo,nombre,contacto,email,telefono,direccion
// tipo = proveedor | categoria. Para categorías solo se usa el nombre.
//
// Uso: go run ./cmd/seed_catalog [-latin1] [ruta/catalogo.csv]
// Por defecto lee catalogo.csv del directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/002_seed_catalog.sql
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Los IDs se derivan del nombre para que regenerar el script no duplique filas.
var catalogNamespace = uuid.MustParse("6f1d3c0e-2b7a-4f43-9a55-0c1e8d7b2a10")

type supplierRow struct {
	id, name, contact, email, phone, address string
}

type categoryRow struct {
	id, name string
}

func main() {
	latin1 := flag.Bool("latin1", false, "el CSV viene en ISO-8859-1")
	flag.Parse()

	csvPath := "catalogo.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var in io.Reader = f
	if *latin1 {
		in = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	suppliers, categories, err := parseCatalog(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "002_seed_catalog.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, suppliers, categories); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d proveedores, %d categorías\n", outPath, len(suppliers), len(categories))
}

// parseCatalog lee el CSV y devuelve proveedores y categorías sin repetir, ordenados por nombre.
func parseCatalog(r io.Reader) ([]supplierRow, []categoryRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("cabecera: %w", err)
	}
	if len(header) < 2 {
		return nil, nil, errors.New("cabecera: se esperan al menos las columnas tipo,nombre")
	}

	suppliers := make(map[string]supplierRow)
	categories := make(map[string]categoryRow)
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("línea %d: %w", line, err)
		}
		kind := strings.ToLower(strings.TrimSpace(field(rec, 0)))
		name := strings.TrimSpace(field(rec, 1))
		if name == "" {
			continue
		}
		switch kind {
		case "proveedor":
			suppliers[strings.ToLower(name)] = supplierRow{
				id:      uuid.NewSHA1(catalogNamespace, []byte("supplier:"+strings.ToLower(name))).String(),
				name:    name,
				contact: strings.TrimSpace(field(rec, 2)),
				email:   strings.TrimSpace(field(rec, 3)),
				phone:   strings.TrimSpace(field(rec, 4)),
				address: strings.TrimSpace(field(rec, 5)),
			}
		case "categoria", "categoría":
			categories[strings.ToLower(name)] = categoryRow{
				id:   uuid.NewSHA1(catalogNamespace, []byte("category:"+strings.ToLower(name))).String(),
				name: name,
			}
		default:
			return nil, nil, fmt.Errorf("línea %d: tipo desconocido %q", line, kind)
		}
	}

	sup := make([]supplierRow, 0, len(suppliers))
	for _, s := range suppliers {
		sup = append(sup, s)
	}
	sort.Slice(sup, func(i, j int) bool { return sup[i].name < sup[j].name })

	cat := make([]categoryRow, 0, len(categories))
	for _, c := range categories {
		cat = append(cat, c)
	}
	sort.Slice(cat, func(i, j int) bool { return cat[i].name < cat[j].name })
	return sup, cat, nil
}

func writeSQL(w io.Writer, suppliers []supplierRow, categories []categoryRow) error {
	var b strings.Builder
	b.WriteString("-- Catálogo de proveedores y categorías\n")
	b.WriteString("-- Generado por cmd/seed_catalog\n\n")

	if len(categories) > 0 {
		b.WriteString("-- 1. Categorías\n")
		b.WriteString("INSERT INTO categories (id, name) VALUES\n")
		for i, c := range categories {
			fmt.Fprintf(&b, "  ('%s', '%s')", c.id, escapeSQL(c.name))
			b.WriteString(sep(i, len(categories)))
		}
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name;\n\n")
	}

	if len(suppliers) > 0 {
		b.WriteString("-- 2. Proveedores\n")
		b.WriteString("INSERT INTO suppliers (id, name, contact_name, email, phone, address) VALUES\n")
		for i, s := range suppliers {
			fmt.Fprintf(&b, "  ('%s', '%s', '%s', '%s', '%s', '%s')",
				s.id, escapeSQL(s.name), escapeSQL(s.contact), escapeSQL(s.email), escapeSQL(s.phone), escapeSQL(s.address))
			b.WriteString(sep(i, len(suppliers)))
		}
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, contact_name = EXCLUDED.contact_name,\n")
		b.WriteString("  email = EXCLUDED.email, phone = EXCLUDED.phone, address = EXCLUDED.address;\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func sep(i, n int) string {
	if i < n-1 {
		return ",\n"
	}
	return "\n"
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
