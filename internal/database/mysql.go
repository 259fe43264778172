package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
	"clubq/entity"
	"clubq/internal/config"

	"github.com/go-sql-driver/mysql"
)

type MySql struct {
	db         *sql.DB
	loc        *time.Location
	prefix     string
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.MySql.UserName, conf.MySql.Password, conf.MySql.HostName, conf.MySql.Port, conf.MySql.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 30-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(30 * time.Second)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:         db,
		prefix:     conf.MySql.Prefix,
		statements: make(map[string]*sql.Stmt),
	}

	if err = sdb.createTables(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(conf.Location)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	sdb.loc = loc

	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

// storeErr maps driver failures to the error kinds the services act on:
// unique-index violations become ErrDuplicate (retry or conflict), lock
// waits and deadlocks become ErrTransient (whole-call retry), missing rows
// become entity.ErrNotFound.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return fmt.Errorf("%w: %s", ErrDuplicate, myErr.Message)
		case 1205, 1213:
			return fmt.Errorf("%w: %s", entity.ErrTransient, myErr.Message)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", entity.ErrTransient, err)
	}
	return err
}

// InTx runs fn inside one transaction; any error rolls the whole unit back.
func (s *MySql) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", storeErr(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err = fn(&mysqlTx{tx: tx, prefix: s.prefix}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", storeErr(err))
	}
	return nil
}

func (s *MySql) UserByToken(ctx context.Context, token string) (*entity.User, error) {
	stmt, err := s.stmtSelectUserByToken()
	if err != nil {
		return nil, err
	}
	return scanUser(stmt.QueryRowContext(ctx, token))
}

func (s *MySql) UserByID(ctx context.Context, id int64) (*entity.User, error) {
	stmt, err := s.stmtSelectUserByID()
	if err != nil {
		return nil, err
	}
	return scanUser(stmt.QueryRowContext(ctx, id))
}

func scanUser(row *sql.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Token, &u.RegisteredAt)
	if err != nil {
		return nil, storeErr(err)
	}
	return &u, nil
}

func (s *MySql) RolesByUser(ctx context.Context, userID int64) ([]entity.UserRole, error) {
	stmt, err := s.stmtSelectRolesByUser()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var roles []entity.UserRole
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, storeErr(rows.Err())
}

func (s *MySql) AccountsByUser(ctx context.Context, userID int64) ([]entity.UserAccount, error) {
	stmt, err := s.stmtSelectAccountsByUser()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var accounts []entity.UserAccount
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acc)
	}
	return accounts, storeErr(rows.Err())
}

func (s *MySql) AccountByNumber(ctx context.Context, number string) (*entity.UserAccount, error) {
	stmt, err := s.stmtSelectAccountByNumber()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, number)
	if err != nil {
		return nil, storeErr(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, storeErr(err)
		}
		return nil, entity.ErrNotFound
	}
	return scanAccount(rows)
}

func (s *MySql) SearchAccounts(ctx context.Context, query string, kind entity.RoleKind) ([]entity.AccountSummary, error) {
	stmt, err := s.stmtSearchAccounts()
	if err != nil {
		return nil, err
	}
	pattern := "%" + query + "%"
	// empty kind matches every role through the ('' = ? OR role_kind = ?) guard
	rows, err := stmt.QueryContext(ctx, pattern, pattern, string(kind), string(kind))
	if err != nil {
		return nil, storeErr(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []entity.AccountSummary
	for rows.Next() {
		var sum entity.AccountSummary
		var deactivated sql.NullTime
		var clubID, clubName sql.NullString
		err = rows.Scan(
			&sum.Account.ID, &sum.Account.RoleID, &sum.Account.UserID, &sum.Account.Number,
			&sum.Account.Kind, &clubID, &sum.Account.IsActive, &sum.Account.CreatedAt,
			&deactivated, &sum.UserName, &clubName,
		)
		if err != nil {
			return nil, storeErr(err)
		}
		sum.Account.ClubID = clubID.String
		sum.ClubName = clubName.String
		if deactivated.Valid {
			sum.Account.DeactivatedAt = &deactivated.Time
		}
		result = append(result, sum)
	}
	return result, storeErr(rows.Err())
}

func (s *MySql) ClubByID(ctx context.Context, id string) (*entity.Club, error) {
	stmt, err := s.stmtSelectClubByID()
	if err != nil {
		return nil, err
	}
	return scanClubRow(stmt.QueryRowContext(ctx, id))
}

func (s *MySql) ClubByOwner(ctx context.Context, userID int64) (*entity.Club, error) {
	stmt, err := s.stmtSelectClubByOwner()
	if err != nil {
		return nil, err
	}
	return scanClubRow(stmt.QueryRowContext(ctx, userID))
}

func scanClubRow(row *sql.Row) (*entity.Club, error) {
	var c entity.Club
	err := row.Scan(&c.ID, &c.Name, &c.ClubType, &c.Description, &c.Email,
		&c.Phone, &c.Country, &c.City, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		return nil, storeErr(err)
	}
	return &c, nil
}

func (s *MySql) InviteByCode(ctx context.Context, code string) (*entity.InviteCode, error) {
	stmt, err := s.stmtSelectInviteByCode()
	if err != nil {
		return nil, err
	}
	return scanInviteRow(stmt.QueryRowContext(ctx, code))
}

func (s *MySql) InviteByID(ctx context.Context, id string) (*entity.InviteCode, error) {
	stmt, err := s.stmtSelectInviteByID()
	if err != nil {
		return nil, err
	}
	return scanInviteRow(stmt.QueryRowContext(ctx, id))
}

func scanInviteRow(row *sql.Row) (*entity.InviteCode, error) {
	var c entity.InviteCode
	var expires sql.NullTime
	err := row.Scan(&c.ID, &c.ClubID, &c.Code, &c.Role, &expires,
		&c.UsageLimit, &c.UsedCount, &c.IsActive, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		return nil, storeErr(err)
	}
	if expires.Valid {
		c.ExpiresAt = &expires.Time
	}
	return &c, nil
}
