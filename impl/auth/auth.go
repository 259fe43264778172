package auth

import (
	"context"
	"fmt"
	"clubq/entity"
)

type Database interface {
	UserByToken(ctx context.Context, token string) (*entity.User, error)
}

type Auth struct {
	db Database
}

func New(db Database) *Auth {
	return &Auth{db: db}
}

func (a *Auth) UserByToken(ctx context.Context, token string) (*entity.User, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return a.db.UserByToken(ctx, token)
}
