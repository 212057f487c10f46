package auth

import (
	"github.com/smallbiznis/volunteerhub/internal/auth/repository"
	"github.com/smallbiznis/volunteerhub/internal/auth/service"
	"github.com/smallbiznis/volunteerhub/internal/auth/token"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(token.Provide),
	fx.Provide(service.New),
)
