package tiercache

import (
	"context"

	"github.com/unkn0wn-root/tiercache/backend"
	"github.com/unkn0wn-root/tiercache/local"
	"github.com/unkn0wn-root/tiercache/multi"
	"github.com/unkn0wn-root/tiercache/remote"
)

// Deps carries the collaborators handed to a Builder.
type Deps struct {
	Logger backend.Logger
	Hooks  multi.Hooks // used by the multi kind only; nil means no-op
}

// Builder constructs the backend described by validated Settings.
type Builder func(ctx context.Context, s Settings, deps Deps) (backend.Backend, error)

// Build is the default Builder.
func Build(ctx context.Context, s Settings, deps Deps) (backend.Backend, error) {
	log := backend.OrNop(deps.Logger)
	switch s.Kind {
	case backend.KindLocal:
		l, err := local.New(s.Local.Config(), log)
		if err != nil {
			return nil, err
		}
		return l, nil
	case backend.KindRemote:
		r, err := remote.New(ctx, s.Remote.Config(), log)
		if err != nil {
			return nil, err
		}
		return r, nil
	case backend.KindMulti:
		opts := []multi.Option{multi.WithLogger(log)}
		if deps.Hooks != nil {
			opts = append(opts, multi.WithHooks(deps.Hooks))
		}
		m, err := multi.New(ctx, s.Local.Config(), s.Remote.Config(), s.Multi.Config(), opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, backend.Errorf(backend.CodeConfiguration, "init", "", "unknown cache kind %q", s.Kind)
	}
}
