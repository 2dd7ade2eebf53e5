//go:build !portaudio

// ABOUTME: PortAudio stub when the library is not built in
// ABOUTME: Registers the driver so discovery reports how to enable it
package portaudio

import (
	"fmt"

	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
	"go.uber.org/zap"
)

func init() {
	backend.Register(backend.Factory{
		Name:     Name,
		Priority: priority,
		Init: func(string, *zap.Logger) (backend.Backend, error) {
			return nil, fmt.Errorf("%w: PortAudio support not enabled (build with -tags portaudio)", backend.ErrUnavailable)
		},
	})
}
