package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"

	"greenMarketBack/internal/models"
)

// MySQL server error numbers.
const (
	mysqlTooManyConnections = 1040
	mysqlServerShutdown     = 1053
	mysqlFunctionMissing    = 1305
	mysqlConnectionError    = 2002
	mysqlConnHostError      = 2003
	mysqlServerGone         = 2006
	mysqlServerLost         = 2013
)

// classifyStoreError maps a driver error onto the repository error taxonomy.
func classifyStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrStoreUnavailable) || errors.Is(err, models.ErrQueryError) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if isGeoCapabilityError(err) {
		return fmt.Errorf("%s: %w: %w: %v", op, models.ErrStoreUnavailable, models.ErrGeoUnavailable, err)
	}
	if isConnectivityError(err) {
		return fmt.Errorf("%s: %w: %v", op, models.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w: %v", op, models.ErrQueryError, err)
}

func isGeoCapabilityError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// undefined_function, undefined_object (type geography missing)
		return pgErr.Code == "42883" || pgErr.Code == "42704"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlFunctionMissing
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return strings.Contains(liteErr.Error(), "no such function")
	}
	return false
}

func isConnectivityError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	// database/sql does not export its closed-pool error
	if strings.Contains(err.Error(), "sql: database is closed") {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08: connection exception, 57P0x: operator intervention
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0")
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlTooManyConnections, mysqlServerShutdown, mysqlConnectionError,
			mysqlConnHostError, mysqlServerGone, mysqlServerLost:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
