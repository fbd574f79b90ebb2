package database

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog/log"

	"flower_shop/internal/config"
)

// ConnectScylla opens the audit keyspace session. Returns nil, nil when
// SCYLLA_HOSTS is unset.
func ConnectScylla(cfg *config.Config) (*gocql.Session, error) {
	hosts := cfg.ScyllaHostList()
	if len(hosts) == 0 {
		return nil, nil
	}

	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = cfg.ScyllaKeyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.ReconnectInterval = time.Second
	if cfg.ScyllaUsername != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.ScyllaUsername,
			Password: cfg.ScyllaPassword,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("create scylla session for %s: %w", cfg.ScyllaKeyspace, err)
	}
	log.Info().Str("keyspace", cfg.ScyllaKeyspace).Msg("✅ Connected to ScyllaDB")
	return session, nil
}
