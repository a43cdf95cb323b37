// Package httpserver runs an http.Handler with graceful shutdown.
//
// Run binds the listener synchronously, so address errors surface
// immediately as ErrStart, then serves until the context is cancelled or the
// process receives SIGINT/SIGTERM. Shutdown drains in-flight requests within
// the configured deadline and is safe to call repeatedly. Start and stop hooks
// run around the serving lifecycle and receive the server logger.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// HealthCheckHandler serves liveness ("ALIVE") or, when dependency checks are
// supplied, readiness ("READY" / "NOT_READY") probes.
package httpserver
