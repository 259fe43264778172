package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"clubq/entity"
)

// Memory is an in-process Store with the same contract as the MySQL client:
// duplicate-key signaling on the same keys and serialized transactions with
// rollback on error. It backs the test suites and local runs without a
// database; one coarse mutex stands in for row-level locking, which keeps
// the observable redemption order a serial one just like FOR UPDATE does.
type Memory struct {
	mu   sync.Mutex
	data memoryData
}

type memoryData struct {
	users    map[int64]entity.User
	roles    map[string]entity.UserRole
	accounts map[string]entity.UserAccount
	clubs    map[string]entity.Club
	invites  map[string]entity.InviteCode
	profiles map[int64]entity.UserProfile
	children map[string]entity.UserChild
}

func NewMemory() *Memory {
	return &Memory{data: memoryData{
		users:    make(map[int64]entity.User),
		roles:    make(map[string]entity.UserRole),
		accounts: make(map[string]entity.UserAccount),
		clubs:    make(map[string]entity.Club),
		invites:  make(map[string]entity.InviteCode),
		profiles: make(map[int64]entity.UserProfile),
		children: make(map[string]entity.UserChild),
	}}
}

func (d memoryData) clone() memoryData {
	c := memoryData{
		users:    make(map[int64]entity.User, len(d.users)),
		roles:    make(map[string]entity.UserRole, len(d.roles)),
		accounts: make(map[string]entity.UserAccount, len(d.accounts)),
		clubs:    make(map[string]entity.Club, len(d.clubs)),
		invites:  make(map[string]entity.InviteCode, len(d.invites)),
		profiles: make(map[int64]entity.UserProfile, len(d.profiles)),
		children: make(map[string]entity.UserChild, len(d.children)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.roles {
		c.roles[k] = v
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.clubs {
		c.clubs[k] = v
	}
	for k, v := range d.invites {
		c.invites[k] = v
	}
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for k, v := range d.children {
		c.children[k] = v
	}
	return c
}

// SeedUser installs a user fixture.
func (m *Memory) SeedUser(u entity.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.users[u.ID] = u
}

// SeedClub installs a club fixture without the manager-onboarding path.
func (m *Memory) SeedClub(c entity.Club) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.clubs[c.ID] = c
}

// SeedInvite installs an invite fixture with a known code.
func (m *Memory) SeedInvite(c entity.InviteCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.invites[c.ID] = c
}

// InTx serializes units of work; on error the staged copy is discarded so
// no partial write survives.
func (m *Memory) InTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.data.clone()
	if err := fn(&memoryTx{data: &staged}); err != nil {
		return err
	}
	m.data = staged
	return nil
}

func (m *Memory) UserByToken(_ context.Context, token string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.data.users {
		if u.Token == token {
			user := u
			return &user, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (m *Memory) UserByID(_ context.Context, id int64) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.data.users[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) RolesByUser(_ context.Context, userID int64) ([]entity.UserRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return rolesOf(&m.data, userID, false), nil
}

func (m *Memory) AccountsByUser(_ context.Context, userID int64) ([]entity.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var accounts []entity.UserAccount
	for _, a := range m.data.accounts {
		if a.UserID == userID {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (m *Memory) AccountByNumber(_ context.Context, number string) (*entity.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.data.accounts {
		if a.Number == number {
			acc := a
			return &acc, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (m *Memory) SearchAccounts(_ context.Context, query string, kind entity.RoleKind) ([]entity.AccountSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	var result []entity.AccountSummary
	for _, a := range m.data.accounts {
		if kind != "" && a.Kind != kind {
			continue
		}
		user := m.data.users[a.UserID]
		if !strings.Contains(strings.ToLower(a.Number), q) &&
			!strings.Contains(strings.ToLower(user.Name), q) {
			continue
		}
		sum := entity.AccountSummary{Account: a, UserName: user.Name}
		if club, ok := m.data.clubs[a.ClubID]; ok {
			sum.ClubName = club.Name
		}
		result = append(result, sum)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Account.ID < result[j].Account.ID
	})
	return result, nil
}

func (m *Memory) ClubByID(_ context.Context, id string) (*entity.Club, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data.clubs[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &c, nil
}

func (m *Memory) ClubByOwner(_ context.Context, userID int64) (*entity.Club, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clubOfOwner(&m.data, userID)
}

func (m *Memory) InviteByCode(_ context.Context, code string) (*entity.InviteCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return inviteOfCode(&m.data, code)
}

func (m *Memory) InviteByID(_ context.Context, id string) (*entity.InviteCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data.invites[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &c, nil
}

func rolesOf(d *memoryData, userID int64, activeOnly bool) []entity.UserRole {
	var roles []entity.UserRole
	for _, r := range d.roles {
		if r.UserID != userID {
			continue
		}
		if activeOnly && !r.IsActive {
			continue
		}
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool {
		if roles[i].CreatedAt.Equal(roles[j].CreatedAt) {
			return roles[i].ID < roles[j].ID
		}
		return roles[i].CreatedAt.Before(roles[j].CreatedAt)
	})
	return roles
}

func clubOfOwner(d *memoryData, userID int64) (*entity.Club, error) {
	for _, c := range d.clubs {
		if c.CreatedBy == userID {
			club := c
			return &club, nil
		}
	}
	return nil, entity.ErrNotFound
}

func inviteOfCode(d *memoryData, code string) (*entity.InviteCode, error) {
	for _, c := range d.invites {
		if c.Code == code {
			invite := c
			return &invite, nil
		}
	}
	return nil, entity.ErrNotFound
}

// memoryTx mutates the staged copy only; Memory.InTx decides whether the
// copy becomes visible.
type memoryTx struct {
	data *memoryData
}

func (t *memoryTx) ActiveRole(_ context.Context, userID int64, kind entity.RoleKind, clubID string) (*entity.UserRole, error) {
	for _, r := range t.data.roles {
		if r.UserID == userID && r.IsActive && r.Matches(kind, clubID) {
			role := r
			return &role, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (t *memoryTx) ActiveRoles(_ context.Context, userID int64) ([]entity.UserRole, error) {
	return rolesOf(t.data, userID, true), nil
}

func (t *memoryTx) InsertRole(_ context.Context, role *entity.UserRole) error {
	for _, r := range t.data.roles {
		if r.UserID == role.UserID && r.IsActive && r.Matches(role.Kind, role.ClubID) {
			return fmt.Errorf("%w: active role", ErrDuplicate)
		}
	}
	t.data.roles[role.ID] = *role
	return nil
}

func (t *memoryTx) DeactivateRole(_ context.Context, roleID string, at time.Time) error {
	r, ok := t.data.roles[roleID]
	if !ok || !r.IsActive {
		return nil
	}
	when := at
	r.IsActive = false
	r.IsPrimary = false
	r.DeactivatedAt = &when
	t.data.roles[roleID] = r
	return nil
}

func (t *memoryTx) ClearPrimaryRole(_ context.Context, userID int64) error {
	for id, r := range t.data.roles {
		if r.UserID == userID && r.IsPrimary {
			r.IsPrimary = false
			t.data.roles[id] = r
		}
	}
	return nil
}

func (t *memoryTx) MarkPrimaryRole(_ context.Context, roleID string) error {
	r, ok := t.data.roles[roleID]
	if !ok || !r.IsActive {
		return entity.ErrNotFound
	}
	r.IsPrimary = true
	t.data.roles[roleID] = r
	return nil
}

func (t *memoryTx) InsertAccount(_ context.Context, acc *entity.UserAccount) error {
	for _, a := range t.data.accounts {
		if a.Number == acc.Number {
			return fmt.Errorf("%w: account number", ErrDuplicate)
		}
	}
	t.data.accounts[acc.ID] = *acc
	return nil
}

func (t *memoryTx) DeactivateAccountByRole(_ context.Context, roleID string, at time.Time) error {
	for id, a := range t.data.accounts {
		if a.RoleID == roleID && a.IsActive {
			when := at
			a.IsActive = false
			a.DeactivatedAt = &when
			t.data.accounts[id] = a
		}
	}
	return nil
}

func (t *memoryTx) AccountByRole(_ context.Context, roleID string) (*entity.UserAccount, error) {
	for _, a := range t.data.accounts {
		if a.RoleID == roleID && a.IsActive {
			acc := a
			return &acc, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (t *memoryTx) UpdateAccountNumber(_ context.Context, accountID, number string) error {
	for _, a := range t.data.accounts {
		if a.Number == number && a.ID != accountID {
			return fmt.Errorf("%w: account number", ErrDuplicate)
		}
	}
	a, ok := t.data.accounts[accountID]
	if !ok {
		return entity.ErrNotFound
	}
	a.Number = number
	t.data.accounts[accountID] = a
	return nil
}

func (t *memoryTx) ClubByOwner(_ context.Context, userID int64) (*entity.Club, error) {
	return clubOfOwner(t.data, userID)
}

func (t *memoryTx) InsertClub(_ context.Context, club *entity.Club) error {
	for _, c := range t.data.clubs {
		if c.CreatedBy == club.CreatedBy {
			return fmt.Errorf("%w: club owner", ErrDuplicate)
		}
	}
	t.data.clubs[club.ID] = *club
	return nil
}

func (t *memoryTx) InviteByCodeForUpdate(_ context.Context, code string) (*entity.InviteCode, error) {
	return inviteOfCode(t.data, code)
}

func (t *memoryTx) InsertInvite(_ context.Context, invite *entity.InviteCode) error {
	for _, c := range t.data.invites {
		if c.Code == invite.Code {
			return fmt.Errorf("%w: invite code", ErrDuplicate)
		}
	}
	t.data.invites[invite.ID] = *invite
	return nil
}

func (t *memoryTx) IncrementInviteUse(_ context.Context, inviteID string) error {
	c, ok := t.data.invites[inviteID]
	if !ok {
		return entity.ErrNotFound
	}
	if !c.IsActive || c.UsedCount >= c.UsageLimit {
		return entity.ErrExhausted
	}
	c.UsedCount++
	t.data.invites[inviteID] = c
	return nil
}

func (t *memoryTx) DeactivateInvite(_ context.Context, inviteID string) error {
	c, ok := t.data.invites[inviteID]
	if !ok {
		return entity.ErrNotFound
	}
	c.IsActive = false
	t.data.invites[inviteID] = c
	return nil
}

func (t *memoryTx) UpsertProfile(_ context.Context, profile *entity.UserProfile) error {
	t.data.profiles[profile.UserID] = *profile
	return nil
}

func (t *memoryTx) InsertChild(_ context.Context, child *entity.UserChild) error {
	t.data.children[child.ID] = *child
	return nil
}

// ChildrenOfParent is a fixture/assertion helper for tests and local runs.
func (m *Memory) ChildrenOfParent(parentUserID int64) []entity.UserChild {
	m.mu.Lock()
	defer m.mu.Unlock()
	var children []entity.UserChild
	for _, c := range m.data.children {
		if c.ParentUserID == parentUserID {
			children = append(children, c)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children
}
