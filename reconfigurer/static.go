package reconfigurer

import (
	"github.com/ferretstack/ferret/config"
	"github.com/ferretstack/ferret/watcher"
)

var _ Provider = &Static{}

// Static implements a Provider with a static config state that only sets its
// watcher state once on initialisation.
type Static struct {
	state config.State
}

// NewStatic creates a provider that will only ever apply the given state.
func NewStatic(state config.State) *Static {
	return &Static{state: state}
}

// Configure implements Provider
func (s *Static) Configure(w watcher.Watcher) error {
	return w.SetState(s.state)
}
