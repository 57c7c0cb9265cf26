package main

import (
	"os"
	"strings"
	"sync"

	"stagegate/internal/api"
	"stagegate/internal/catalog"
	"stagegate/internal/config"
	"stagegate/internal/identity"
	"stagegate/internal/loan"
	"stagegate/internal/logging"
	"stagegate/internal/tracker"
)

// commandContext lazily wires the store, catalog, and services shared by all
// commands. The CLI operates directly on the database; it does not require a
// running daemon.
type commandContext struct {
	configFlag *string
	actorFlag  *string
	roleFlags  *[]string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	serviceOnce sync.Once
	store       *loan.Store
	catalog     *catalog.Catalog
	service     *api.LoanService
	serviceErr  error
}

func newCommandContext(configFlag, actorFlag *string, roleFlags *[]string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		actorFlag:  actorFlag,
		roleFlags:  roleFlags,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			path = strings.TrimSpace(os.Getenv("STAGEGATE_CONFIG"))
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureService opens the store and builds the loan service on first use.
func (c *commandContext) ensureService() (*api.LoanService, error) {
	c.serviceOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.serviceErr = err
			return
		}
		store, err := loan.Open(cfg)
		if err != nil {
			c.serviceErr = err
			return
		}
		cat, err := catalog.Resolve(cfg.Catalog.File)
		if err != nil {
			_ = store.Close()
			c.serviceErr = err
			return
		}
		provider := identity.NewFromConfig(cfg)
		tr, err := tracker.New(cat, store, provider, nil, logging.NewNop())
		if err != nil {
			_ = store.Close()
			c.serviceErr = err
			return
		}
		c.store = store
		c.catalog = cat
		c.service = api.NewLoanService(cat, store, tr, provider)
	})
	return c.service, c.serviceErr
}

func (c *commandContext) ensureCatalog() (*catalog.Catalog, error) {
	if _, err := c.ensureService(); err != nil {
		return nil, err
	}
	return c.catalog, nil
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

// actor resolves the acting staff member from flags, falling back to the
// current OS user with the admin role for local operation.
func (c *commandContext) actor() identity.Actor {
	id := ""
	if c.actorFlag != nil {
		id = strings.TrimSpace(*c.actorFlag)
	}
	if id == "" {
		id = strings.TrimSpace(os.Getenv("STAGEGATE_ACTOR"))
	}
	if id == "" {
		id = os.Getenv("USER")
	}
	if id == "" {
		id = "operator"
	}

	var roles []string
	if c.roleFlags != nil {
		for _, role := range *c.roleFlags {
			trimmed := strings.TrimSpace(role)
			if trimmed != "" {
				roles = append(roles, trimmed)
			}
		}
	}
	if len(roles) == 0 {
		if env := strings.TrimSpace(os.Getenv("STAGEGATE_ROLES")); env != "" {
			for _, role := range strings.Split(env, ",") {
				trimmed := strings.TrimSpace(role)
				if trimmed != "" {
					roles = append(roles, trimmed)
				}
			}
		}
	}
	if len(roles) == 0 {
		roles = []string{"admin"}
	}
	return identity.Actor{ID: id, Roles: roles}
}
