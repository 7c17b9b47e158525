// batch.go — Generate the mockups of several requests, e.g. every line of an order.
package mockup

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one request in a batch; exactly one field is set.
type Outcome struct {
	Result *Result
	Err    error
}

// GenerateBatch runs reqs with bounded concurrency and returns one outcome per
// request, in input order. Requests are independent: a failure does not stop
// the others. Each request gets the pipeline's own timeout.
func (p *Pipeline) GenerateBatch(ctx context.Context, reqs []Request) []Outcome {
	out := make([]Outcome, len(reqs))

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			res, err := p.Generate(ctx, req)
			out[i] = Outcome{Result: res, Err: err}
			return nil
		})
	}
	g.Wait()

	return out
}
