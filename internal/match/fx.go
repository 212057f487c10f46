package match

import (
	"github.com/smallbiznis/volunteerhub/internal/match/repository"
	"github.com/smallbiznis/volunteerhub/internal/match/service"
	"go.uber.org/fx"
)

var Module = fx.Module("match.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
