package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/sit-hvlab/session-gateway/config"
	"github.com/sit-hvlab/session-gateway/internal/adapters/backend"
	"github.com/sit-hvlab/session-gateway/internal/adapters/filestore"
	"github.com/sit-hvlab/session-gateway/internal/adapters/redisstore"
	"github.com/sit-hvlab/session-gateway/internal/adapters/ssoexchange"
	"github.com/sit-hvlab/session-gateway/internal/adapters/ssomock"
	"github.com/sit-hvlab/session-gateway/internal/adapters/ssooidc"
	"github.com/sit-hvlab/session-gateway/internal/domain/policy"
	"github.com/sit-hvlab/session-gateway/internal/ports"
	"github.com/sit-hvlab/session-gateway/internal/service"
)

// ManagerDeps groups inputs for BuildSessionManager.
type ManagerDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// BuildSessionManager wires the artifact store, backend client, SSO
// strategy, and restriction policy into a SessionManager.
func BuildSessionManager(deps ManagerDeps) (*service.SessionManager, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := buildArtifactStore(cfg)
	if err != nil {
		return nil, err
	}

	backendClient, err := backend.NewClient(backend.ClientConfig{
		BaseURL:         cfg.Backend.BaseURL,
		ValidateTimeout: cfg.Backend.ValidateTimeout,
		ExchangeTimeout: cfg.Backend.ExchangeTimeout,
		LogoutTimeout:   cfg.Backend.LogoutTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("build backend client: %w", err)
	}

	strategy, err := buildStrategy(cfg, backendClient, logger)
	if err != nil {
		return nil, err
	}

	evaluator, err := policy.NewEvaluator(policy.Policy{
		AllowedEmailDomain: cfg.Auth.Restrictions.AllowedEmailDomain,
		AllowedGroupIDs:    cfg.Auth.Restrictions.AllowedGroupIDs,
		AllowedRoles:       cfg.Auth.Restrictions.AllowedRoles,
	}, policy.EvaluatorOptions{
		GroupsExpr: cfg.Auth.Restrictions.GroupsClaim,
		RolesExpr:  cfg.Auth.Restrictions.RolesClaim,
	})
	if err != nil {
		return nil, fmt.Errorf("build restriction evaluator: %w", err)
	}

	return service.NewSessionManager(service.SessionManagerOptions{
		Artifacts: service.NewArtifactRepository(store, logger),
		Backend:   backendClient,
		Strategy:  strategy,
		Policy:    evaluator,
		Dest: service.Destinations{
			Home:            cfg.HTTP.HomeURL,
			SessionRequired: cfg.HTTP.SessionRequiredURL,
			Root:            cfg.HTTP.RootURL,
			StaffSignIn:     cfg.HTTP.StaffSignInURL,
		},
		RefreshInterval: cfg.Backend.RefreshInterval,
		Logger:          logger,
	})
}

func buildArtifactStore(cfg *config.AppConfig) (ports.ArtifactStore, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		return redisstore.NewWithPrefix(client, cfg.Store.RedisPrefix), nil
	case config.StoreBackendFile:
		store, err := filestore.New(cfg.Store.FilePath)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}

// buildStrategy picks the SSO strategy by mode. An incomplete OIDC config
// disables staff sign-in rather than failing startup; LTI launches must keep
// working even when SSO is misconfigured.
func buildStrategy(cfg *config.AppConfig, backendClient ports.BackendClient, logger *slog.Logger) (ports.SsoStrategy, error) {
	switch cfg.Auth.Mode {
	case config.SsoModeExchange:
		return ssoexchange.New(ssoexchange.Config{
			Backend:   backendClient,
			LoginURL:  cfg.Backend.StaffLoginURL(),
			LogoutURL: cfg.Backend.StaffLogoutURL(),
			Logger:    logger,
		})

	case config.SsoModeOIDC:
		oidcCfg := cfg.Auth.OIDC
		if oidcCfg.DiscoveryURL == "" || oidcCfg.ClientID == "" || oidcCfg.ClientSecret == "" {
			logger.Warn("SsoModeOIDC selected but required config missing; staff sign-in disabled",
				"discovery_url_empty", oidcCfg.DiscoveryURL == "",
				"client_id_empty", oidcCfg.ClientID == "",
				"client_secret_empty", oidcCfg.ClientSecret == "",
			)
			return nil, nil
		}
		strategy, err := ssooidc.New(ssooidc.Config{
			ClientID:     oidcCfg.ClientID,
			ClientSecret: oidcCfg.ClientSecret,
			RedirectURL:  oidcCfg.RedirectURL,
			Scope:        oidcCfg.Scope,
			DiscoveryURL: oidcCfg.DiscoveryURL,
			LogoutURL:    oidcCfg.LogoutURL,
		})
		if err != nil {
			logger.Warn("failed to create OIDC strategy, staff sign-in disabled", "error", err)
			return nil, nil
		}
		return strategy, nil

	case config.SsoModeMock:
		return ssomock.New(ssomock.Config{
			UserID: cfg.Auth.Mock.UserID,
			Email:  cfg.Auth.Mock.Email,
			Name:   cfg.Auth.Mock.Name,
			Groups: cfg.Auth.Mock.Groups,
			Roles:  cfg.Auth.Mock.Roles,
		})

	case config.SsoModeDisabled:
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown sso mode: %q", cfg.Auth.Mode)
	}
}
