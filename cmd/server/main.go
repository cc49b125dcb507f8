package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/spendflow/modules"
	"github.com/iota-uz/spendflow/pkg/application"
	"github.com/iota-uz/spendflow/pkg/configuration"
	"github.com/iota-uz/spendflow/pkg/eventbus"
	"github.com/iota-uz/spendflow/pkg/middleware"
	"github.com/iota-uz/spendflow/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if err := applySchemas(ctx, app); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	app.RegisterMiddleware(
		middleware.WithPool(pool),
		middleware.RequestLogger(logger),
		middleware.WithActor(conf.ActorIDHeader),
	)

	logger.WithField("address", conf.SocketAddress()).Info("server listening")
	if err := server.NewHTTPServer(app).Start(conf.SocketAddress()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// applySchemas runs every registered module schema. The statements are
// idempotent, so repeated startups converge instead of failing.
func applySchemas(ctx context.Context, app application.Application) error {
	for _, schema := range app.Schemas() {
		entries, err := schema.ReadDir("infrastructure/persistence/schema")
		if err != nil {
			return err
		}
		for _, entry := range entries {
			sql, err := schema.ReadFile("infrastructure/persistence/schema/" + entry.Name())
			if err != nil {
				return err
			}
			if _, err := app.DB().Exec(ctx, string(sql)); err != nil {
				return err
			}
		}
	}
	return nil
}
