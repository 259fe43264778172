package database

import (
	"database/sql"
	"fmt"
)

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

const userColumns = `id, username, name, email, token, registered_at`

func (s *MySql) stmtSelectUserByToken() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %susers WHERE token = ?`,
		userColumns, s.prefix,
	)
	return s.prepareStmt("selectUserByToken", query)
}

func (s *MySql) stmtSelectUserByID() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %susers WHERE id = ?`,
		userColumns, s.prefix,
	)
	return s.prepareStmt("selectUserByID", query)
}

const roleColumns = `id, user_id, role_kind, club_id, is_primary, is_active, created_at, deactivated_at`

func (s *MySql) stmtSelectRolesByUser() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %suser_roles WHERE user_id = ? ORDER BY created_at`,
		roleColumns, s.prefix,
	)
	return s.prepareStmt("selectRolesByUser", query)
}

const accountColumns = `id, role_id, user_id, account_number, role_kind, club_id, is_active, created_at, deactivated_at`

func (s *MySql) stmtSelectAccountsByUser() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %suser_accounts WHERE user_id = ? ORDER BY created_at`,
		accountColumns, s.prefix,
	)
	return s.prepareStmt("selectAccountsByUser", query)
}

func (s *MySql) stmtSelectAccountByNumber() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %suser_accounts WHERE account_number = ?`,
		accountColumns, s.prefix,
	)
	return s.prepareStmt("selectAccountByNumber", query)
}

func (s *MySql) stmtSearchAccounts() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT a.id, a.role_id, a.user_id, a.account_number, a.role_kind, a.club_id,
                a.is_active, a.created_at, a.deactivated_at, u.name, c.name
           FROM %suser_accounts a
           JOIN %susers u ON u.id = a.user_id
           LEFT JOIN %sclubs c ON c.id = a.club_id
          WHERE (a.account_number LIKE ? OR u.name LIKE ?)
            AND ('' = ? OR a.role_kind = ?)
          ORDER BY a.created_at DESC
          LIMIT 50`,
		s.prefix, s.prefix, s.prefix,
	)
	return s.prepareStmt("searchAccounts", query)
}

const clubColumns = `id, name, club_type, description, email, phone, country, city, created_by, created_at`

func (s *MySql) stmtSelectClubByID() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %sclubs WHERE id = ?`,
		clubColumns, s.prefix,
	)
	return s.prepareStmt("selectClubByID", query)
}

func (s *MySql) stmtSelectClubByOwner() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %sclubs WHERE created_by = ?`,
		clubColumns, s.prefix,
	)
	return s.prepareStmt("selectClubByOwner", query)
}

const inviteColumns = `id, club_id, code, role_kind, expires_at, usage_limit, used_count, is_active, created_by, created_at`

func (s *MySql) stmtSelectInviteByCode() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %sclub_invite_codes WHERE code = ?`,
		inviteColumns, s.prefix,
	)
	return s.prepareStmt("selectInviteByCode", query)
}

func (s *MySql) stmtSelectInviteByID() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %sclub_invite_codes WHERE id = ?`,
		inviteColumns, s.prefix,
	)
	return s.prepareStmt("selectInviteByID", query)
}
