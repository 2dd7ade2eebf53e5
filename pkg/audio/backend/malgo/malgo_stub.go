//go:build !cgo

// ABOUTME: Malgo stub when cgo is disabled
// ABOUTME: Registers the driver so discovery reports it as unavailable
package malgo

import (
	"fmt"

	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
	"go.uber.org/zap"
)

func init() {
	backend.Register(backend.Factory{
		Name:     Name,
		Priority: 40,
		Init: func(string, *zap.Logger) (backend.Backend, error) {
			return nil, fmt.Errorf("%w: malgo needs cgo", backend.ErrUnavailable)
		},
	})
}
