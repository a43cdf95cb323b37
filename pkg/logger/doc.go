// Package logger builds *slog.Logger instances for the gateway.
//
// New assembles a text or JSON handler from functional options, attaches
// static attributes (service name, environment) and wraps the handler with a
// decorator that pulls request-scoped values such as the request ID out of
// context.Context on every record.
//
// Attribute helpers in attr.go keep key names consistent across packages:
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "wagate"),
//	    logger.WithContextExtractors(gateway.RequestIDExtractor()),
//	)
//	log.InfoContext(ctx, "session state changed",
//	    logger.State("connected"),
//	    logger.Generation(3),
//	)
//
// Components that accept an optional logger fall back to Discard, which drops
// every record.
package logger
