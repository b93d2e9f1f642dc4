// Package httpserver runs the HTTP surface with graceful shutdown and
// probe endpoints.
//
// The server hosts the mailbox module; note WriteTimeout defaults to zero
// because the status stream endpoint holds its response open indefinitely,
// and http.Server.WriteTimeout would sever it:
//
//	var cfg httpserver.Config
//	config.MustLoad(&cfg)
//
//	r := chi.NewRouter()
//	r.Mount("/", mailboxSvc.Handle())
//	r.Get("/healthz", httpserver.HealthCheckHandler(log))
//	r.Get("/readyz", httpserver.HealthCheckHandler(log, redis.Healthcheck(client)))
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
package httpserver
