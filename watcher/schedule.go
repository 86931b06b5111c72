package watcher

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ferretstack/ferret/config"
	"github.com/ferretstack/ferret/task"
)

var _ Watcher = &ScheduleWatcher{}

// ScheduleWatcher dispatches scrape tasks for its targets on a cron schedule.
// New and changed targets are dispatched immediately when the state updates,
// so a fresh request is scraped without waiting for the next sweep.
type ScheduleWatcher struct {
	bus      chan task.ExecutionTask
	schedule cron.Schedule

	state       config.State
	initialised bool
	initialise  chan bool
	newState    chan config.State
}

// NewScheduleWatcher creates a watcher from a standard 5-field cron
// expression such as "0 0 * * *".
func NewScheduleWatcher(bus chan task.ExecutionTask, scheduleExpr string) (*ScheduleWatcher, error) {
	schedule, err := cron.ParseStandard(scheduleExpr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid schedule %q", scheduleExpr)
	}

	return &ScheduleWatcher{
		bus:      bus,
		schedule: schedule,

		initialise: make(chan bool),
		newState:   make(chan config.State, 16),
	}, nil
}

// Start runs the watcher loop and blocks until the context is cancelled
func (w *ScheduleWatcher) Start(ctx context.Context) error {
	// wait for the first config event to set the initial state
	select {
	case <-w.initialise:
	case <-ctx.Done():
		return ctx.Err()
	}

	zap.L().Debug("schedule watcher initialised",
		zap.Int("targets", len(w.state.Targets)),
		zap.Time("next_sweep", w.schedule.Next(time.Now())))

	for {
		timer := time.NewTimer(time.Until(w.schedule.Next(time.Now())))

		select {
		case newState := <-w.newState:
			timer.Stop()

			zap.L().Debug("schedule watcher received new state",
				zap.Int("targets", len(newState.Targets)))

			w.doReconfigure(newState)

		case <-timer.C:
			zap.L().Info("starting scheduled sweep",
				zap.Int("targets", len(w.state.Targets)))

			w.dispatch(w.state.Targets)

		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// SetState implements Watcher. The first call unblocks Start; later calls are
// handled inside the run loop so reconfigurations never race a sweep.
func (w *ScheduleWatcher) SetState(state config.State) error {
	if !w.initialised {
		return w.doInit(state)
	}
	w.newState <- state
	return nil
}

// GetState implements Watcher
func (w *ScheduleWatcher) GetState() config.State {
	return w.state
}

// doReconfigure diffs the new state against the old to find targets that are
// new or changed, stores the new state, then dispatches just those targets.
// Removals simply drop out of future sweeps.
func (w *ScheduleWatcher) doReconfigure(newState config.State) {
	additions, removals := task.DiffTargets(w.state.Targets, newState.Targets)
	w.state = newState

	if len(removals) > 0 {
		zap.L().Debug("targets removed from schedule",
			zap.Int("removals", len(removals)))
	}

	w.dispatch(additions)
}

func (w *ScheduleWatcher) doInit(state config.State) error {
	w.doReconfigure(state)
	w.initialised = true
	w.initialise <- true
	return nil
}

func (w *ScheduleWatcher) dispatch(targets []task.Target) {
	for _, t := range targets {
		zap.L().Debug("dispatching scrape task",
			zap.String("target", t.Name),
			zap.String("url", t.CareersURL))

		w.bus <- task.ExecutionTask{
			Target: t,
			Env:    w.state.Env,
		}
	}
}
