package volunteerhour

import (
	"github.com/smallbiznis/volunteerhub/internal/volunteerhour/repository"
	"github.com/smallbiznis/volunteerhub/internal/volunteerhour/service"
	"go.uber.org/fx"
)

var Module = fx.Module("volunteerhour.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
