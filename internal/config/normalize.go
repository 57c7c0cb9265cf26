package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	c.normalizeIdentity()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() error {
	c.Catalog.File = strings.TrimSpace(c.Catalog.File)
	if c.Catalog.File == "" {
		return nil
	}
	expanded, err := expandPath(c.Catalog.File)
	if err != nil {
		return fmt.Errorf("catalog.file: %w", err)
	}
	c.Catalog.File = expanded
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("STAGEGATE_API_TOKEN"); ok {
			c.API.Token = value
		}
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.EventTimeoutSeconds <= 0 {
		c.Workflow.EventTimeoutSeconds = defaultEventTimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeIdentity() {
	if len(c.Identity.Roles) == 0 {
		c.Identity.Roles = DefaultRoles()
		return
	}
	normalized := make(map[string][]string, len(c.Identity.Roles))
	for role, caps := range c.Identity.Roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue
		}
		cleaned := make([]string, 0, len(caps))
		for _, capability := range caps {
			if capability = strings.ToLower(strings.TrimSpace(capability)); capability != "" {
				cleaned = append(cleaned, capability)
			}
		}
		normalized[role] = cleaned
	}
	c.Identity.Roles = normalized
}
