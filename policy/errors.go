package policy

import "errors"

// ErrNoCandidates indicates that no providers were offered for selection.
//
// The empty case is the caller's responsibility: the registry rejects an
// empty active-provider list with ErrNoProvidersAvailable before a policy
// ever runs. This sentinel only guards against misuse.
var ErrNoCandidates = errors.New("no candidate providers for selection")
