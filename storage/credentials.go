package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go-mod.ewintr.nl/fluxreader/store"
)

// Credentials keeps the single server/token pair of this client.
type Credentials struct {
	c *Client
}

func NewCredentials(c *Client) *Credentials {
	return &Credentials{c: c}
}

func (r *Credentials) LoadCredentials(ctx context.Context) (store.Credentials, error) {
	var creds store.Credentials
	err := r.c.db.QueryRowContext(ctx, `SELECT server, token FROM credentials WHERE id = 1`).
		Scan(&creds.Server, &creds.Token)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return store.Credentials{}, nil
	case err != nil:
		return store.Credentials{}, fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}

	return creds, nil
}

func (r *Credentials) SaveCredentials(ctx context.Context, creds store.Credentials) error {
	if _, err := r.c.db.ExecContext(ctx, r.c.rebind(`INSERT INTO credentials
(id, server, token)
VALUES (1, ?, ?)
ON CONFLICT (id)
DO UPDATE SET server = EXCLUDED.server, token = EXCLUDED.token`),
		creds.Server, creds.Token,
	); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}

	return nil
}

// ClearToken forgets the token but keeps the server address for the next
// login.
func (r *Credentials) ClearToken(ctx context.Context) error {
	if _, err := r.c.db.ExecContext(ctx, `UPDATE credentials SET token = '' WHERE id = 1`); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseFailure, err)
	}

	return nil
}
