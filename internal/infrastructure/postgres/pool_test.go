package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/config"
)

func TestNewPoolConfig_DesdePartes(t *testing.T) {
	cfg := config.DBConfig{
		Host: "db.local", Port: 5433, User: "ledger", Password: "p@ss:word",
		DBName: "stock_ledger", SSLMode: "disable", MaxConns: 10, MinConns: 3,
	}
	pc, err := newPoolConfig(cfg, "stock-ledger")
	require.NoError(t, err)

	assert.Equal(t, "db.local", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "p@ss:word", pc.ConnConfig.Password)
	assert.Equal(t, int32(10), pc.MaxConns)
	assert.Equal(t, int32(3), pc.MinConns)
	assert.Equal(t, "stock-ledger", pc.ConnConfig.RuntimeParams["application_name"])
	assert.NotNil(t, pc.AfterConnect)
}

func TestNewPoolConfig_DatabaseURLTienePrioridad(t *testing.T) {
	cfg := config.DBConfig{
		DatabaseURL: "postgres://u:p@remote:6543/ledger?sslmode=disable",
		Host:        "ignorado",
		MinConns:    50,
	}
	pc, err := newPoolConfig(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "remote", pc.ConnConfig.Host)
	assert.Equal(t, "ledger", pc.ConnConfig.Database)
	// MinConns mayor que MaxConns se ignora
	assert.LessOrEqual(t, pc.MinConns, pc.MaxConns)
}

func TestNewPoolConfig_DSNInvalido(t *testing.T) {
	_, err := newPoolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@host:notaport/db"}, "")
	assert.ErrorContains(t, err, "parse DSN")
}

func TestWrapErr(t *testing.T) {
	lockErr := &pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"}
	err := wrapErr("get product for update", "product", fmt.Errorf("query: %w", lockErr))
	var busy *domain.BusyError
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, "product", busy.Resource)
	assert.ErrorIs(t, err, domain.ErrBusy)

	other := errors.New("conexión cerrada")
	err = wrapErr("update quantity", "product", other)
	assert.ErrorIs(t, err, other)
	assert.ErrorContains(t, err, "update quantity")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestValidUUIDYNulos(t *testing.T) {
	assert.True(t, validUUID("7f1c2a3e-5b6d-4e8f-9a0b-1c2d3e4f5a6b"))
	assert.False(t, validUUID("p1"))
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "x", nullIfEmpty("x"))
	s := "y"
	assert.Equal(t, "y", derefString(&s))
	assert.Equal(t, "", derefString(nil))
}
