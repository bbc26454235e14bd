// Package dedupe holds the shared singleflight groups used to collapse
// concurrent generation requests for the same key.
package dedupe

import "golang.org/x/sync/singleflight"

// ArtGroup deduplicates creature art generation keyed by the art cache key.
var ArtGroup singleflight.Group
