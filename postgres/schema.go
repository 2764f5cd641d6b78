package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// models in dependency order: every table only references tables before it.
var models = []any{
	(*user)(nil),
	(*post)(nil),
	(*reaction)(nil),
}

// CreateSchema creates the users, posts and reactions tables with their
// foreign keys unless they already exist.
func (pg *Postgres) CreateSchema(ctx context.Context) error {
	return pg.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, m := range models {
			_, err := tx.NewCreateTable().
				Model(m).
				IfNotExists().
				WithForeignKeys().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("create table: %w", err)
			}
		}
		return nil
	})
}

// DropSchema drops all tables created by CreateSchema.
func (pg *Postgres) DropSchema(ctx context.Context) error {
	for i := len(models) - 1; i >= 0; i-- {
		_, err := pg.bun.NewDropTable().
			Model(models[i]).
			IfExists().
			Cascade().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return nil
}
