package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/matheuscscp/cms-git-backend/internal/auth/backend"
	"github.com/matheuscscp/cms-git-backend/internal/auth/client"
	"github.com/matheuscscp/cms-git-backend/internal/config"
	"github.com/matheuscscp/cms-git-backend/internal/constants"
	"github.com/matheuscscp/cms-git-backend/internal/datalayer"
	"github.com/matheuscscp/cms-git-backend/internal/gitprovider"
	"github.com/matheuscscp/cms-git-backend/internal/issuer"
	"github.com/matheuscscp/cms-git-backend/internal/provider/factory"
	"github.com/matheuscscp/cms-git-backend/internal/store"
)

// New wires the configured components into an HTTP server. The returned
// function releases the database and session store connections.
func New(ctx context.Context, conf *config.Config) (*http.Server, func(), error) {
	return newWithRegistry(ctx, conf, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func newWithRegistry(ctx context.Context, conf *config.Config,
	promRegisterer prometheus.Registerer, promGatherer prometheus.Gatherer) (*http.Server, func(), error) {

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*http.Server, func(), error) {
		cleanup()
		return nil, nil, err
	}

	iss := issuer.New()
	p, roles, err := factory.New(ctx, conf, iss)
	if err != nil {
		return fail(fmt.Errorf("failed to create identity provider: %w", err))
	}

	st, closeStore, err := newStore(ctx, &conf.Session)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeStore)

	adapter, err := datalayer.OpenSQL(ctx, &conf.Database)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { adapter.Close() })

	git, err := gitprovider.New(gitprovider.Options{
		RootPath:      conf.Git.RootPath,
		Branch:        conf.Git.Branch,
		CommitMessage: conf.Git.CommitMessage,
		AuthorName:    conf.Git.AuthorName,
		AuthorEmail:   conf.Git.AuthorEmail,
	}, promRegisterer)
	if err != nil {
		return fail(err)
	}
	db := datalayer.New(adapter, git, conf.Database.Namespace)

	authz := backend.New(p, roles, conf.OIDC.RoleCode)
	newAuthenticator := func(b *client.Browser) client.Authenticator {
		return client.New(p, &conf.OIDC, b)
	}
	if conf.Local {
		local := client.NewLocal(iss)
		newAuthenticator = func(*client.Browser) client.Authenticator { return local }
	}

	api := newAPI(conf, db, st, authz, newAuthenticator, promRegisterer)
	ready := func(r *http.Request) error { return adapter.Ping(r.Context()) }
	return newServer(conf, api, ready, promRegisterer, promGatherer), cleanup, nil
}

func newAPI(conf *config.Config, db *datalayer.Database, st store.Store, authz backend.Authorizer,
	newAuthenticator authenticatorFactory, promRegisterer prometheus.Registerer) http.Handler {

	r := chi.NewRouter()
	contentRoutes(r, db, backend.Middleware(authz, promRegisterer))
	adminRoutes(r, conf, st, newAuthenticator)
	return r
}

func newStore(ctx context.Context, conf *config.SessionConfig) (store.Store, func(), error) {
	if conf.RedisAddr == "" {
		return store.NewMemoryStore(), func() {}, nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
	})
	if err := rc.Ping(ctx).Err(); err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at '%s': %w", conf.RedisAddr, err)
	}
	return store.NewRedisStore(rc, constants.CMSGitBackend+":"), func() { rc.Close() }, nil
}
