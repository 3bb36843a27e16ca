package dedupe

// Package dedupe provides the shared singleflight group used to
// deduplicate concurrent narrative generation requests. Using a
// centralized singleflight.Group ensures that only one generation job
// runs for a given prompt fingerprint while other callers wait for the
// result.

import "golang.org/x/sync/singleflight"

// NarrativeGroup deduplicates narrative generation keyed by the
// canonical prompt fingerprint (see keys.PromptFingerprint).
var NarrativeGroup singleflight.Group
