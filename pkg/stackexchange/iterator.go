package stackexchange

import (
	"context"
)

type fetchFunc[T any] func(ctx context.Context, batch string, page int) (*Envelope[T], error)

// EnvelopeIterator walks the pages of a method, one envelope per Next.
// It is lazy: no request is made before the first Next.
type EnvelopeIterator[T any] struct {
	batches  []string
	fetchAll bool
	paged    bool
	fetch    fetchFunc[T]
	onExtra  func(batch string, env *Envelope[T])

	batch int
	page  int
	cur   *Envelope[T]
	err   error
}

func newEnvelopeIterator[T any](batches []string, fetchAll, paged bool, fetch fetchFunc[T]) *EnvelopeIterator[T] {
	return &EnvelopeIterator[T]{
		batches:  batches,
		fetchAll: fetchAll,
		paged:    paged,
		fetch:    fetch,
	}
}

// newBatchIterator iterates over the id batches of p. Parameters built
// without their constructor are prepared here; a validation failure is
// reported by Err.
func newBatchIterator[T any](p Params, fetchAll, paged bool, fetch fetchFunc[T]) *EnvelopeIterator[T] {
	err := prepare(p)
	it := newEnvelopeIterator(p.base().Batches(), fetchAll, paged, fetch)
	it.err = err
	return it
}

// Next fetches the next envelope. It returns false when the iteration is
// exhausted or failed; check Err to tell the two apart.
//
// Without fetchAll only the first page of the first batch is fetched. With
// fetchAll every batch is walked, and paged methods request pages 1, 2, ...
// until has_more is false or a page comes back empty.
func (it *EnvelopeIterator[T]) Next(ctx context.Context) bool {
	if it.err != nil || it.batch >= len(it.batches) {
		return false
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		return false
	}

	it.page++
	env, err := it.fetch(ctx, it.batches[it.batch], it.page)
	if err != nil {
		it.err = err
		return false
	}
	it.cur = env

	switch {
	case !it.fetchAll:
		it.batch = len(it.batches)
	case it.paged && env.More() && len(env.Items) > 0:
		// stay on this batch
	default:
		if !it.paged && env.More() && it.onExtra != nil {
			it.onExtra(it.batches[it.batch], env)
		}
		it.batch++
		it.page = 0
	}
	return true
}

// Envelope returns the envelope fetched by the last successful Next
func (it *EnvelopeIterator[T]) Envelope() *Envelope[T] {
	return it.cur
}

// Err returns the error that stopped the iteration, if any
func (it *EnvelopeIterator[T]) Err() error {
	return it.err
}

// ItemIterator yields the items of every envelope in turn
type ItemIterator[T any] struct {
	envelopes *EnvelopeIterator[T]
	buf       []T
	cur       T
}

// Items adapts an envelope iterator into an item iterator
func Items[T any](it *EnvelopeIterator[T]) *ItemIterator[T] {
	return &ItemIterator[T]{envelopes: it}
}

// Next advances to the next item, fetching pages as needed
func (it *ItemIterator[T]) Next(ctx context.Context) bool {
	for len(it.buf) == 0 {
		if !it.envelopes.Next(ctx) {
			return false
		}
		it.buf = it.envelopes.Envelope().Items
	}
	it.cur = it.buf[0]
	it.buf = it.buf[1:]
	return true
}

// Item returns the current item
func (it *ItemIterator[T]) Item() T {
	return it.cur
}

// Err returns the error that stopped the iteration, if any
func (it *ItemIterator[T]) Err() error {
	return it.envelopes.Err()
}

// Collect drains it into a slice
func Collect[T any](ctx context.Context, it *ItemIterator[T]) ([]T, error) {
	var out []T
	for it.Next(ctx) {
		out = append(out, it.Item())
	}
	return out, it.Err()
}

// CollectEnvelopes drains it into a slice
func CollectEnvelopes[T any](ctx context.Context, it *EnvelopeIterator[T]) ([]*Envelope[T], error) {
	var out []*Envelope[T]
	for it.Next(ctx) {
		out = append(out, it.Envelope())
	}
	return out, it.Err()
}
