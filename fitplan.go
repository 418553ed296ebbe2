package fitplan

import "embed"

// AssetsFS holds the bundled workout plan served by the embedded plan source.
//
//go:embed assets/workouts.json
var AssetsFS embed.FS
