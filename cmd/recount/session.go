package main

import (
	"context"
	"fmt"

	"recount/internal/backend"
	"recount/internal/command"
	"recount/internal/config"
	"recount/internal/log"
	"recount/internal/session"
)

// openSession builds the configured backend and starts a session on it.
// The caller owns both and must End the session before closing the backend.
func openSession(ctx context.Context, cfg *config.Config, logger *log.Logger) (*session.Session, *backend.BackendResult, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	res, err := backend.NewFactory(logger.Logger.With(log.FieldComponent, log.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}

	sess := session.New(command.New(nil), res.Backend,
		session.WithLogger(logger),
		session.WithEventWriter(res.Backend),
		session.WithAliasStore(res.AliasStore()),
		session.WithWriteTimeout(cfg.WriteTimeout),
	)
	if err := sess.Start(ctx); err != nil {
		_ = res.Close()
		return nil, nil, fmt.Errorf("start session: %w", err)
	}
	return sess, res, nil
}
