// Package logging builds the process logger on top of log/slog.
//
// New returns a Logger with JSON or text output, a level held in a
// slog.LevelVar so it can be changed on configuration reload, and a
// ReplaceAttr hook that masks credentials:
//
//   - attributes whose name contains access-token, token, api_key,
//     authorization, secret or password are replaced by "***"
//   - registered secret values (the upstream credential) are replaced by
//     "***" wherever they appear inside string and error attributes
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:   "info",
//	    Format:  "json",
//	    Secrets: []string{cfg.Upstream.Token},
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger.Slog())
//
//	// later, on reload
//	_ = logger.SetLevel("debug")
package logging
