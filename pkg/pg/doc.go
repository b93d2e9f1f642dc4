// Package pg wraps pgx pool setup with retrying connection logic, a
// health-check probe and error classification helpers.
//
// The pool backs connstatus.PostgresStore in single-instance deployments:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	store, err := connstatus.NewPostgresStore(pool)
package pg
