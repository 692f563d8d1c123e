package model

import "log/slog"

// Credential is the long-lived web API credential used to authenticate
// calls to the remote achievement API. Username identifies the API account,
// which is not necessarily the player being verified.
type Credential struct {
	Username  string
	WebAPIKey string
}

// Complete reports whether both the username and the web API key are set.
func (c Credential) Complete() bool {
	return c.Username != "" && c.WebAPIKey != ""
}

// String implements fmt.Stringer without exposing the web API key.
func (c Credential) String() string {
	return "Credential{Username: " + c.Username + ", WebAPIKey: [redacted]}"
}

// LogValue implements slog.LogValuer so credentials never reach the logs.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.Bool("has_key", c.WebAPIKey != ""),
	)
}
