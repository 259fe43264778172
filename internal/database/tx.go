package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"clubq/entity"
)

// mysqlTx implements Tx over one *sql.Tx. Queries are built inline instead
// of going through the prepared-statement cache, statements prepared on the
// pool cannot be reused inside a transaction.
type mysqlTx struct {
	tx     *sql.Tx
	prefix string
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*entity.UserRole, error) {
	var r entity.UserRole
	var clubID sql.NullString
	var deactivated sql.NullTime
	err := row.Scan(&r.ID, &r.UserID, &r.Kind, &clubID, &r.IsPrimary, &r.IsActive, &r.CreatedAt, &deactivated)
	if err != nil {
		return nil, storeErr(err)
	}
	r.ClubID = clubID.String
	if deactivated.Valid {
		r.DeactivatedAt = &deactivated.Time
	}
	return &r, nil
}

func scanAccount(row rowScanner) (*entity.UserAccount, error) {
	var a entity.UserAccount
	var clubID sql.NullString
	var deactivated sql.NullTime
	err := row.Scan(&a.ID, &a.RoleID, &a.UserID, &a.Number, &a.Kind, &clubID, &a.IsActive, &a.CreatedAt, &deactivated)
	if err != nil {
		return nil, storeErr(err)
	}
	a.ClubID = clubID.String
	if deactivated.Valid {
		a.DeactivatedAt = &deactivated.Time
	}
	return &a, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (t *mysqlTx) ActiveRole(ctx context.Context, userID int64, kind entity.RoleKind, clubID string) (*entity.UserRole, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %suser_roles
          WHERE user_id = ? AND role_kind = ? AND club_id = ? AND is_active = 1`,
		roleColumns, t.prefix,
	)
	return scanRole(t.tx.QueryRowContext(ctx, query, userID, string(kind), clubID))
}

func (t *mysqlTx) ActiveRoles(ctx context.Context, userID int64) ([]entity.UserRole, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %suser_roles WHERE user_id = ? AND is_active = 1 ORDER BY created_at`,
		roleColumns, t.prefix,
	)
	rows, err := t.tx.QueryContext(ctx, query, userID)
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

// InsertRole relies on the (user_id, role_kind, club_id, active_key) unique
// index: active rows carry an empty active_key, so a second active row for
// the same tuple fails with ErrDuplicate regardless of what a racing
// transaction read earlier.
func (t *mysqlTx) InsertRole(ctx context.Context, role *entity.UserRole) error {
	query := fmt.Sprintf(
		`INSERT INTO %suser_roles
            (id, user_id, role_kind, club_id, is_primary, is_active, active_key, created_at)
         VALUES (?, ?, ?, ?, ?, 1, '', ?)`,
		t.prefix,
	)
	_, err := t.tx.ExecContext(ctx, query,
		role.ID, role.UserID, string(role.Kind), role.ClubID, role.IsPrimary, role.CreatedAt)
	return storeErr(err)
}

// DeactivateRole releases the active-tuple slot by moving the row id into
// active_key. Idempotent: a second call matches no active row.
func (t *mysqlTx) DeactivateRole(ctx context.Context, roleID string, at time.Time) error {
	query := fmt.Sprintf(
		`UPDATE %suser_roles
            SET is_active = 0, is_primary = 0, active_key = id, deactivated_at = ?
          WHERE id = ? AND is_active = 1`,
		t.prefix,
	)
	_, err := t.tx.ExecContext(ctx, query, at, roleID)
	return storeErr(err)
}

func (t *mysqlTx) ClearPrimaryRole(ctx context.Context, userID int64) error {
	query := fmt.Sprintf(
		`UPDATE %suser_roles SET is_primary = 0 WHERE user_id = ? AND is_primary = 1`,
		t.prefix,
	)
	_, err := t.tx.ExecContext(ctx, query, userID)
	return storeErr(err)
}

func (t *mysqlTx) MarkPrimaryRole(ctx context.Context, roleID string) error {
	query := fmt.Sprintf(
		`UPDATE %suser_roles SET is_primary = 1 WHERE id = ? AND is_active = 1`,
		t.prefix,
	)
	res, err := t.tx.ExecContext(ctx, query, roleID)
	if err != nil {
		return storeErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if affected == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// InsertAccount reserves the account number on the unique index; a racing
// reservation of the same number surfaces as ErrDuplicate and the caller
// retries with a fresh candidate.
func (t *mysqlTx) InsertAccount(ctx context.Context, acc *entity.UserAccount) error {
	query := fmt.Sprintf(
		`INSERT INTO %suser_accounts
            (id, role_id, user_id, account_number, role_kind, club_id, is_active, created_at)
         VALUES (?, ?, ?, ?, ?, ?, 1, ?)`,
		t.prefix,
	)
	_, err := t.tx.ExecContext(ctx, query,
		acc.ID, acc.RoleID, acc.UserID, acc.Number, string(acc.Kind), acc.ClubID, acc.CreatedAt)
	return storeErr(err)
}

func (t *mysqlTx) DeactivateAccountByRole(ctx context.Context, roleID string, at time.Time) error {
	query := fmt.Sprintf(
		`UPDATE %suser_accounts SET is_active = 0, deactivated_at = ? WHERE role_id = ? AND is_active = 1`,
		t.prefix,
	)
	_, err := t.tx.ExecContext(ctx, query, at, roleID)
	return storeErr(err)
}

func (t *mysqlTx) AccountByRole(ctx context.Context, roleID string) (*entity.UserAccount, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %suser_accounts WHERE role_id = ? AND is_active = 1`,
		accountColumns, t.prefix,
	)
	return scanAccount(t.tx.QueryRowContext(ctx, query, roleID))
}

func (t *mysqlTx) UpdateAccountNumber(ctx context.Context, accountID, number string) error {
	query := fmt.Sprintf(
		`UPDATE %suser_accounts SET account_number = ? WHERE id = ?`,
		t.prefix,
	)
	_, err := t.tx.ExecContext(ctx, query, number, accountID)
	return storeErr(err)
}

func (t *mysqlTx) ClubByOwner(ctx context.Context, userID int64) (*entity.Club, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %sclubs WHERE created_by = ?`,
		clubColumns, t.prefix,
	)
	var c entity.Club
	err := t.tx.QueryRowContext(ctx, query, userID).Scan(
		&c.ID, &c.Name, &c.ClubType, &c.Description, &c.Email,
		&c.Phone, &c.Country, &c.City, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		return nil, storeErr(err)
	}
	return &c, nil
}

// InsertClub enforces one club per manager through the unique index on
// created_by.
func (t *mysqlTx) InsertClub(ctx context.Context, club *entity.Club) error {
	query := fmt.Sprintf(
		`INSERT INTO %sclubs
            (id, name, club_type, description, email, phone, country, city, created_by, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.prefix,
	)
	_, err := t.tx.ExecContext(ctx, query,
		club.ID, club.Name, club.ClubType, club.Description, club.Email,
		club.Phone, club.Country, club.City, club.CreatedBy, club.CreatedAt)
	return storeErr(err)
}

// InviteByCodeForUpdate takes the row lock that serializes redemption.
// The caller re-checks state on the returned row before incrementing.
func (t *mysqlTx) InviteByCodeForUpdate(ctx context.Context, code string) (*entity.InviteCode, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %sclub_invite_codes WHERE code = ? FOR UPDATE`,
		inviteColumns, t.prefix,
	)
	var c entity.InviteCode
	var expires sql.NullTime
	err := t.tx.QueryRowContext(ctx, query, code).Scan(
		&c.ID, &c.ClubID, &c.Code, &c.Role, &expires,
		&c.UsageLimit, &c.UsedCount, &c.IsActive, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		return nil, storeErr(err)
	}
	if expires.Valid {
		c.ExpiresAt = &expires.Time
	}
	return &c, nil
}

func (t *mysqlTx) InsertInvite(ctx context.Context, invite *entity.InviteCode) error {
	query := fmt.Sprintf(
		`INSERT INTO %sclub_invite_codes
            (id, club_id, code, role_kind, expires_at, usage_limit, used_count, is_active, created_by, created_at)
         VALUES (?, ?, ?, ?, ?, ?, 0, 1, ?, ?)`,
		t.prefix,
	)
	_, err := t.tx.ExecContext(ctx, query,
		invite.ID, invite.ClubID, invite.Code, string(invite.Role), nullTime(invite.ExpiresAt),
		invite.UsageLimit, invite.CreatedBy, invite.CreatedAt)
	return storeErr(err)
}

// IncrementInviteUse guards against overshoot a second time in SQL; the
// row lock makes the guard redundant but keeps the used_count <= usage_limit
// invariant even under a buggy caller.
func (t *mysqlTx) IncrementInviteUse(ctx context.Context, inviteID string) error {
	query := fmt.Sprintf(
		`UPDATE %sclub_invite_codes
            SET used_count = used_count + 1
          WHERE id = ? AND is_active = 1 AND used_count < usage_limit`,
		t.prefix,
	)
	res, err := t.tx.ExecContext(ctx, query, inviteID)
	if err != nil {
		return storeErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if affected == 0 {
		return entity.ErrExhausted
	}
	return nil
}

func (t *mysqlTx) DeactivateInvite(ctx context.Context, inviteID string) error {
	query := fmt.Sprintf(
		`UPDATE %sclub_invite_codes SET is_active = 0 WHERE id = ?`,
		t.prefix,
	)
	_, err := t.tx.ExecContext(ctx, query, inviteID)
	return storeErr(err)
}

func (t *mysqlTx) UpsertProfile(ctx context.Context, profile *entity.UserProfile) error {
	query := fmt.Sprintf(
		`INSERT INTO %suser_profiles
            (user_id, first_name, last_name, date_of_birth, email, phone, country, medical_info, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON DUPLICATE KEY UPDATE
            first_name = VALUES(first_name), last_name = VALUES(last_name),
            date_of_birth = VALUES(date_of_birth), email = VALUES(email),
            phone = VALUES(phone), country = VALUES(country),
            medical_info = VALUES(medical_info), updated_at = VALUES(updated_at)`,
		t.prefix,
	)
	_, err := t.tx.ExecContext(ctx, query,
		profile.UserID, profile.FirstName, profile.LastName, nullTime(profile.DateOfBirth),
		profile.Email, profile.Phone, profile.Country, profile.MedicalInfo, profile.UpdatedAt)
	return storeErr(err)
}

func (t *mysqlTx) InsertChild(ctx context.Context, child *entity.UserChild) error {
	query := fmt.Sprintf(
		`INSERT INTO %suser_children
            (id, parent_user_id, first_name, last_name, date_of_birth, medical_info, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.prefix,
	)
	_, err := t.tx.ExecContext(ctx, query,
		child.ID, child.ParentUserID, child.FirstName, child.LastName,
		nullTime(child.DateOfBirth), child.MedicalInfo, child.CreatedAt)
	return storeErr(err)
}
