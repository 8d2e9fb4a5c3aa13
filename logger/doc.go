// Package logger provides structured logging for reqkit backends and
// middleware, built on zerolog.
//
// Output is JSON by default; the console format is meant for
// development:
//
//	log := logger.NewDefault("checkout-client")
//	log.Info("request sent", logger.Fields("status", 200))
package logger
