package config

const (
	defaultDataDir             = "~/.local/share/stagegate/data"
	defaultLogDir              = "~/.local/share/stagegate/logs"
	defaultAPIBind             = "127.0.0.1:7512"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultEventTimeoutSeconds = 10
	defaultNtfyRequestTimeout  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Workflow: Workflow{
			EventTimeoutSeconds: defaultEventTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			StageEntered:   true,
			LoanCompleted:  true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Identity: Identity{
			Roles: DefaultRoles(),
		},
	}
}

// DefaultRoles returns the built-in role to capability grants.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		"broker":    {"record_signal", "view_loans"},
		"processor": {"record_signal", "view_loans", "advance_loan_stage"},
		"admin":     {"record_signal", "view_loans", "advance_loan_stage", "create_loan"},
	}
}
