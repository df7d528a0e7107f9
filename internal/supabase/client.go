package supabase

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"memorial-storefront/internal/config"
)

// ErrNotFound is returned by reads when no row matches.
var ErrNotFound = errors.New("not found")

// Client is the PostgREST side of the persistence client: catalog reads and
// order, profile and review writes.
type Client struct {
	Supabase *supabase.Client
}

func NewClient(cfg *config.Config) (*Client, error) {
	return NewClientWithKey(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
}

func NewClientWithKey(url, key string) (*Client, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{Supabase: client}, nil
}

func (c *Client) from(table string) *postgrest.QueryBuilder {
	return c.Supabase.From(table)
}

var ascending = &postgrest.OrderOpts{Ascending: true}

// checkID reports an id that is not a UUID as ErrNotFound. Every id column
// is a UUID, so such an id can not match a row.
func checkID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
