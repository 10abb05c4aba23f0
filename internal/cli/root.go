package cli

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rl1809/warehouse-slotting/internal/adapter/storage"
	"github.com/rl1809/warehouse-slotting/internal/core/domain"
	"github.com/rl1809/warehouse-slotting/internal/core/service"
)

var rootCmd = &cobra.Command{
	Use:   "warehousectl",
	Short: "Warehouse slotting administration",
	Long: `warehousectl administers the warehouse slotting engine: commissioning
the location grid, repairing inconsistent location records, and reading
dashboard stats.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// deps bundles the adapters a command needs plus their teardown.
type deps struct {
	store *storage.MySQLAdapter
	cache *storage.RedisAdapter
	cfg   domain.CapacityConfig
	close func()
}

func (d *deps) locations() *service.LocationService {
	return service.NewLocationService(d.store, d.cfg)
}

func (d *deps) transactions() *service.TransactionManager {
	return service.NewTransactionManager(d.store, d.cache, d.cfg)
}

func (d *deps) stats() *service.StatsService {
	return service.NewStatsService(d.store, d.cache)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newDeps() (*deps, error) {
	_ = godotenv.Load()

	dsn := envOr("MYSQL_DSN", "root:root@tcp(localhost:3306)/warehouse?parseTime=true")
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: envOr("REDIS_ADDR", "localhost:6379")})

	return &deps{
		store: storage.NewMySQLAdapter(db),
		cache: storage.NewRedisAdapter(rdb),
		cfg:   domain.DefaultCapacityConfig(),
		close: func() {
			rdb.Close()
			db.Close()
		},
	}, nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(statsCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
