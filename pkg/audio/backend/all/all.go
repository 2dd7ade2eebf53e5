// ABOUTME: Links every playback driver into the binary
// ABOUTME: Import for side effects to make all backends discoverable
// Package all registers every driver. Import it for its side effects:
//
//	import _ "github.com/DingusDevOrg/cubeb/pkg/audio/backend/all"
package all

import (
	_ "github.com/DingusDevOrg/cubeb/pkg/audio/backend/beep"
	_ "github.com/DingusDevOrg/cubeb/pkg/audio/backend/malgo"
	_ "github.com/DingusDevOrg/cubeb/pkg/audio/backend/null"
	_ "github.com/DingusDevOrg/cubeb/pkg/audio/backend/oto"
	_ "github.com/DingusDevOrg/cubeb/pkg/audio/backend/pipe"
	_ "github.com/DingusDevOrg/cubeb/pkg/audio/backend/portaudio"
)
