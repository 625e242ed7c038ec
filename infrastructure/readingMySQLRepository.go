package infrastructure

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mdblp/analytics-service/schema"
)

const selectReadings = "SELECT user_id, temperature FROM temperatures WHERE user_id = ?"

// MySQLConfig connection parameters of the readings database
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Timeout  time.Duration
}

// DSN returns the go-sql-driver data source name
func (c MySQLConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.Database
	cfg.Timeout = c.Timeout
	cfg.ReadTimeout = c.Timeout
	cfg.WriteTimeout = c.Timeout
	return cfg.FormatDSN()
}

// ReadingMySQLRepository reads the temperature readings
type ReadingMySQLRepository struct {
	db *sqlx.DB
}

// OpenMySQL opens the connection pool, it does not connect until the first query
func OpenMySQL(config MySQLConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql [%s/%s]: %w", config.Host, config.Database, err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxIdleConns(5)
	return db, nil
}

func NewReadingMySQLRepository(db *sqlx.DB) *ReadingMySQLRepository {
	return &ReadingMySQLRepository{db: db}
}

// ParseSubjectID converts the token subject to the readings user id
func ParseSubjectID(subjectID string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(subjectID), 10, 64)
	if err != nil {
		return 0, schema.NewValidationError(subjectID, err)
	}
	return id, nil
}

// FetchReadings returns every reading of the subject, in no particular order
func (r *ReadingMySQLRepository) FetchReadings(ctx context.Context, subjectID string) ([]schema.Reading, error) {
	userID, err := ParseSubjectID(subjectID)
	if err != nil {
		return nil, err
	}

	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, schema.NewStoreUnavailableError(subjectID, fmt.Errorf("acquire connection: %w", err))
	}
	defer conn.Close()

	readings := []schema.Reading{}
	if err := conn.SelectContext(ctx, &readings, selectReadings, userID); err != nil {
		return nil, schema.NewStoreUnavailableError(subjectID, fmt.Errorf("select readings: %w", err))
	}
	return readings, nil
}

func (r *ReadingMySQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *ReadingMySQLRepository) Close() error {
	return r.db.Close()
}
