package config

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pos")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("TX_TIMEOUT", "")
	t.Setenv("TX_MAX_WAIT", "")
	t.Setenv("TX_ISOLATION", "")
	t.Setenv("COST_PRICE_PRECISION", "")
	t.Setenv("SALES_CANCEL_RESTOCK", "")
	t.Setenv("ADMIN_EMAIL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 20*time.Second, cfg.Tx.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Tx.MaxWait)
	assert.Equal(t, sql.LevelReadCommitted, cfg.Tx.Isolation)
	assert.Equal(t, int32(2), cfg.CostPricePrecision)
	assert.False(t, cfg.SalesCancelRestock)
	assert.Equal(t, "admin@example.com", cfg.AdminEmail)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TX_TIMEOUT", "5s")
	t.Setenv("TX_MAX_WAIT", "250ms")
	t.Setenv("TX_ISOLATION", "serializable")
	t.Setenv("COST_PRICE_PRECISION", "0")
	t.Setenv("SALES_CANCEL_RESTOCK", "true")
	t.Setenv("SALES_RETURN_RESTOCK", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.Tx.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Tx.MaxWait)
	assert.Equal(t, sql.LevelSerializable, cfg.Tx.Isolation)
	assert.Equal(t, int32(0), cfg.CostPricePrecision)
	assert.True(t, cfg.SalesCancelRestock)
	assert.True(t, cfg.SalesReturnRestock)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TX_TIMEOUT", "-1s")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("TX_TIMEOUT", "")
	t.Setenv("TX_ISOLATION", "chaos")
	_, err = Load()
	assert.Error(t, err)
}
