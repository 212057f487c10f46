package providers

import (
	"github.com/smallbiznis/volunteerhub/internal/providers/email"
	"github.com/smallbiznis/volunteerhub/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
