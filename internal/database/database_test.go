package database

import (
	"strings"
	"testing"

	"github.com/Shivanand-hulikatti/explore-events/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	db := config.Default().Database
	db.Host = "pg"
	db.Name = "ewm"

	assert.Equal(t,
		"host=pg port=5432 user=postgres password=postgres dbname=ewm sslmode=disable",
		DSN(db),
	)
}

func TestSchemaGuardsActiveRequestUniqueness(t *testing.T) {
	var found bool
	for _, stmt := range schema {
		if strings.Contains(stmt, "uq_requests_active") {
			found = true
			assert.Contains(t, stmt, "WHERE status <> 'CANCELED'")
		}
	}
	assert.True(t, found, "partial unique index on active requests must exist")
}
