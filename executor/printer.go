package executor

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ferretstack/ferret/task"
)

var _ Executor = &Printer{}

// Printer implements an executor that scrapes but doesn't publish, it just
// prints the job cards it found. Used for dry runs.
type Printer struct {
	scraper Scraper
}

// NewPrinter creates a new Printer
func NewPrinter(scraper Scraper) *Printer {
	return &Printer{scraper: scraper}
}

// Subscribe implements executor.Executor
func (p *Printer) Subscribe(ctx context.Context, bus chan task.ExecutionTask) error {
	for {
		select {
		case t, ok := <-bus:
			if !ok {
				return nil
			}
			p.print(ctx, t)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Printer) print(ctx context.Context, t task.ExecutionTask) {
	cards, err := p.scraper.Process(ctx, t.Target)
	if err != nil {
		zap.L().Error("failed to scrape target",
			zap.String("target", t.Target.Name),
			zap.Error(err))
		return
	}
	for _, card := range cards {
		raw, err := json.MarshalIndent(card, "", "  ")
		if err != nil {
			continue
		}
		fmt.Println(string(raw))
	}
}
