// Package logger provides structured logging for the auth service
// using zerolog.
//
// It supports JSON and console output formats, log level configuration,
// and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("flow")
//	log.Info("token exchanged", logger.Fields("status", 200))
package logger
