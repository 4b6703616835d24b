// Package logger wraps zap for the sentinel binaries.
//
// A global sugared console logger is created at init and can be scoped per
// request or component by storing a derived logger in a context
// (ToContext, WithName, WithKV). The helpers (InfoKV, ErrorKV, ...) always
// take a context and log through whatever logger it carries.
package logger
