package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRejectsMissingClickHouseURL(t *testing.T) {
	s := &Settings{
		Postgres: PostgresSettings{Host: "localhost", Database: "dex"},
		Indexer:  IndexerSettings{HypersyncBearerToken: "tok"},
	}
	s.ClickHouse.Database = "dex"
	err := s.validate()
	assert.ErrorContains(t, err, "clickhouse.url")
}

func TestValidateRejectsMissingHypersyncToken(t *testing.T) {
	s := &Settings{
		Postgres: PostgresSettings{Host: "localhost", Database: "dex"},
	}
	s.ClickHouse.URL = "tcp://localhost:9000"
	s.ClickHouse.Database = "dex"
	err := s.validate()
	assert.ErrorContains(t, err, "hypersync_bearer_token")
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	s := &Settings{
		Postgres: PostgresSettings{Host: "localhost", Database: "dex"},
		Indexer:  IndexerSettings{HypersyncBearerToken: "tok"},
	}
	s.ClickHouse.URL = "tcp://localhost:9000"
	s.ClickHouse.Database = "dex"
	assert.NoError(t, s.validate())
}
