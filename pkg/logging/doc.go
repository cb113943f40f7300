// Package logging configures the structured operational logging of oasmock.
//
// It wraps log/slog. Long-lived components (service registry, engine, control API, CLI) accept
// a *slog.Logger through a constructor option or setter and fall back to Nop:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//	engineLog := logging.Component(logger, "engine")
//	engineLog.Info("listening", "addr", ":4010")
//
// The schema engine packages (oas, matcher, dsl, state, validator) do not log; they return
// errors.
package logging
