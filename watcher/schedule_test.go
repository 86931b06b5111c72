package watcher_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferretstack/ferret/config"
	"github.com/ferretstack/ferret/task"
	"github.com/ferretstack/ferret/watcher"

	_ "github.com/ferretstack/ferret/logger"
)

var w watcher.Watcher
var bus chan task.ExecutionTask

func TestMain(m *testing.M) {
	os.Setenv("DEBUG", "1")
	bus = make(chan task.ExecutionTask, 16)

	// midnight sweeps won't fire during the test run, so every task on the
	// bus comes from a state transition
	sw, err := watcher.NewScheduleWatcher(bus, "0 0 * * *")
	if err != nil {
		panic(err)
	}

	go func() {
		if err := sw.Start(context.Background()); err != nil {
			panic(err)
		}
	}()

	w = sw

	os.Exit(m.Run())
}

func TestStateTransitions(t *testing.T) {
	assert.Empty(t, w.GetState())

	env := map[string]string{"KEY": "VALUE"}

	acme := task.Target{
		Name:       "acme",
		CareersURL: "https://boards.greenhouse.io/acme",
		Keywords:   []string{"golang"},
	}
	initech := task.Target{
		Name:       "initech",
		CareersURL: "https://recruiting.paylocity.com/Recruiting/Jobs/All/abc",
		Keywords:   []string{"sre"},
	}

	// add target acme
	require.NoError(t, w.SetState(config.State{
		Targets: task.Targets{acme},
		Env:     env,
	}))
	// add target initech
	require.NoError(t, w.SetState(config.State{
		Targets: task.Targets{acme, initech},
		Env:     env,
	}))
	// change acme's keywords
	changed := acme
	changed.Keywords = []string{"golang", "kubernetes"}
	require.NoError(t, w.SetState(config.State{
		Targets: task.Targets{changed, initech},
		Env:     env,
	}))
	// remove initech, nothing dispatched
	require.NoError(t, w.SetState(config.State{
		Targets: task.Targets{changed},
		Env:     env,
	}))

	assert.Equal(t, task.ExecutionTask{Target: acme, Env: env}, <-bus)
	assert.Equal(t, task.ExecutionTask{Target: initech, Env: env}, <-bus)
	assert.Equal(t, task.ExecutionTask{Target: changed, Env: env}, <-bus)

	select {
	case unexpected := <-bus:
		t.Fatalf("unexpected task dispatched: %v", unexpected)
	default:
	}
}

func TestStartReturnsWhenCancelledBeforeInit(t *testing.T) {
	sw, err := watcher.NewScheduleWatcher(make(chan task.ExecutionTask), "0 0 * * *")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 1)
	go func() { errs <- sw.Start(ctx) }()

	// never initialised with a state; cancellation must still unblock Start
	cancel()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}
