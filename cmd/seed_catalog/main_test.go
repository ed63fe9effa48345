package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const sampleCSV = `tipo,nombre,contacto,email,telefono,direccion
proveedor,Ferretería O'Brien,Ana,ana@obrien.co,3001234567,Calle 1
categoria,Tornillería
proveedor,Distribuidora Norte,,,,
categoría,Tornillería
`

func TestParseCatalog(t *testing.T) {
	sup, cat, err := parseCatalog(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Len(t, sup, 2)
	assert.Equal(t, "Distribuidora Norte", sup[0].name)
	assert.Equal(t, "Ferretería O'Brien", sup[1].name)
	assert.Equal(t, "Ana", sup[1].contact)

	require.Len(t, cat, 1, "las categorías repetidas se unifican")
	assert.Equal(t, "Tornillería", cat[0].name)
}

func TestParseCatalog_IDsEstables(t *testing.T) {
	a, _, err := parseCatalog(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	b, _, err := parseCatalog(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, a[0].id, b[0].id)
}

func TestParseCatalog_TipoDesconocido(t *testing.T) {
	_, _, err := parseCatalog(strings.NewReader("tipo,nombre\ncliente,Juan\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "línea 2")
}

func TestParseCatalog_Latin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String("tipo,nombre\ncategoria,Papelería\n")
	require.NoError(t, err)

	r := transform.NewReader(strings.NewReader(encoded), charmap.ISO8859_1.NewDecoder())
	_, cat, err := parseCatalog(r)
	require.NoError(t, err)
	require.Len(t, cat, 1)
	assert.Equal(t, "Papelería", cat[0].name)
}

func TestWriteSQL_EscapaComillas(t *testing.T) {
	sup, cat, err := parseCatalog(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSQL(&buf, sup, cat))
	sql := buf.String()
	assert.Contains(t, sql, "INSERT INTO categories")
	assert.Contains(t, sql, "INSERT INTO suppliers")
	assert.Contains(t, sql, "O''Brien")
	assert.Equal(t, 2, strings.Count(sql, "ON CONFLICT"))
}
