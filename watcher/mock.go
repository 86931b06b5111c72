package watcher

import (
	"context"

	"github.com/ferretstack/ferret/config"
)

var _ Watcher = &MockWatcher{}

type MockWatcher struct {
	state config.State
}

func (m *MockWatcher) Start(ctx context.Context) error {
	return nil
}

func (m *MockWatcher) SetState(s config.State) error {
	m.state = s
	return nil
}

func (m *MockWatcher) GetState() config.State {
	return m.state
}
