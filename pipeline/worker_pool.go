package pipeline

import (
	"context"
	"destination-finder/models"
	"sync"
	"time"
)

type priceResult struct {
	city      string
	histogram models.PriceHistogram
	err       error
}

// pricePool fans price lookups out to a fixed number of workers. Workers
// only send on results; the caller owns everything built from them.
type pricePool struct {
	provider PriceProvider
	workers  int
	timeout  time.Duration
	jobs     chan string
	results  chan priceResult
	wg       sync.WaitGroup
}

func newPricePool(provider PriceProvider, workers int, timeout time.Duration) *pricePool {
	return &pricePool{
		provider: provider,
		workers:  workers,
		timeout:  timeout,
	}
}

// run returns a channel that yields one result per city in completion order
// and is closed once every worker has exited.
func (p *pricePool) run(ctx context.Context, cities []string, query models.PriceQuery) <-chan priceResult {
	p.jobs = make(chan string)
	p.results = make(chan priceResult, len(cities))

	workerCount := p.workers
	if len(cities) < workerCount {
		workerCount = len(cities)
	}

	p.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go p.worker(ctx, query)
	}

	go func() {
		defer close(p.jobs)
		for _, city := range cities {
			select {
			case p.jobs <- city:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		p.wg.Wait()
		close(p.results)
	}()

	return p.results
}

func (p *pricePool) worker(ctx context.Context, query models.PriceQuery) {
	defer p.wg.Done()

	for city := range p.jobs {
		callCtx, cancel := withTimeout(ctx, p.timeout)
		histogram, err := p.provider.Fetch(callCtx, city, query)
		cancel()

		p.results <- priceResult{city: city, histogram: histogram, err: err}
	}
}
