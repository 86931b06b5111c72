package watcher

import (
	"context"

	"github.com/ferretstack/ferret/config"
)

// Watcher describes a type that holds the current set of scrape targets and
// decides when they get scraped. It provides a way to acquire its current
// state so systems such as the Reconfigurer can inspect it and decide if it
// needs updating.
type Watcher interface {
	Start(context.Context) error
	SetState(config.State) error
	GetState() config.State
}
