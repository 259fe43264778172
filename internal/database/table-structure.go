package database

import "fmt"

// createTables bootstraps the schema on startup. The unique keys carry the
// cross-table invariants: account numbers and invite codes are globally
// unique, a manager owns at most one club, and the active_key column keeps
// at most one active role per (user, role_kind, club) tuple: active rows
// hold an empty active_key, deactivated rows get their own id written into
// it, freeing the slot without deleting history.
func (s *MySql) createTables() error {
	tables := []struct {
		name string
		ddl  string
	}{
		{"users", `(
			id BIGINT NOT NULL AUTO_INCREMENT,
			username VARCHAR(64) NOT NULL,
			name VARCHAR(128) NOT NULL DEFAULT '',
			email VARCHAR(128) NOT NULL DEFAULT '',
			token VARCHAR(128) NOT NULL,
			registered_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uniq_username (username),
			UNIQUE KEY uniq_token (token)
		)`},
		{"clubs", `(
			id VARCHAR(36) NOT NULL,
			name VARCHAR(128) NOT NULL,
			club_type VARCHAR(64) NOT NULL,
			description TEXT,
			email VARCHAR(128) NOT NULL DEFAULT '',
			phone VARCHAR(32) NOT NULL DEFAULT '',
			country VARCHAR(2) NOT NULL DEFAULT '',
			city VARCHAR(64) NOT NULL DEFAULT '',
			created_by BIGINT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uniq_club_owner (created_by)
		)`},
		{"user_roles", `(
			id VARCHAR(36) NOT NULL,
			user_id BIGINT NOT NULL,
			role_kind VARCHAR(16) NOT NULL,
			club_id VARCHAR(36) NOT NULL DEFAULT '',
			is_primary TINYINT(1) NOT NULL DEFAULT 0,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			active_key VARCHAR(36) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			deactivated_at DATETIME NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uniq_active_role (user_id, role_kind, club_id, active_key),
			KEY idx_roles_user (user_id)
		)`},
		{"user_accounts", `(
			id VARCHAR(36) NOT NULL,
			role_id VARCHAR(36) NOT NULL,
			user_id BIGINT NOT NULL,
			account_number CHAR(11) NOT NULL,
			role_kind VARCHAR(16) NOT NULL,
			club_id VARCHAR(36) NOT NULL DEFAULT '',
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			deactivated_at DATETIME NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uniq_account_number (account_number),
			KEY idx_accounts_user (user_id),
			KEY idx_accounts_role (role_id)
		)`},
		{"club_invite_codes", `(
			id VARCHAR(36) NOT NULL,
			club_id VARCHAR(36) NOT NULL,
			code VARCHAR(32) NOT NULL,
			role_kind VARCHAR(16) NOT NULL,
			expires_at DATETIME NULL,
			usage_limit INT NOT NULL DEFAULT 1,
			used_count INT NOT NULL DEFAULT 0,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_by BIGINT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uniq_invite_code (code),
			KEY idx_invites_club (club_id)
		)`},
		{"user_profiles", `(
			user_id BIGINT NOT NULL,
			first_name VARCHAR(64) NOT NULL,
			last_name VARCHAR(64) NOT NULL,
			date_of_birth DATE NULL,
			email VARCHAR(128) NOT NULL DEFAULT '',
			phone VARCHAR(32) NOT NULL DEFAULT '',
			country VARCHAR(2) NOT NULL DEFAULT '',
			medical_info TEXT,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (user_id)
		)`},
		{"user_children", `(
			id VARCHAR(36) NOT NULL,
			parent_user_id BIGINT NOT NULL,
			first_name VARCHAR(64) NOT NULL,
			last_name VARCHAR(64) NOT NULL,
			date_of_birth DATE NULL,
			medical_info TEXT,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			KEY idx_children_parent (parent_user_id)
		)`},
	}

	for _, table := range tables {
		query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s%s %s", s.prefix, table.name, table.ddl)
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("create table %s: %w", table.name, err)
		}
	}
	return nil
}
