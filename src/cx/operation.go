package cx

import "context"

// Operation is the body of a latency benchmark. The client is the harness owned connection,
// or a dedicated one when every trial runs on a fresh connection. Bodies that manage their
// own connections may ignore it.
type Operation interface {
	Do(ctx context.Context, client Client) error
}

// OperationFunc adapts a function to the Operation interface
type OperationFunc func(ctx context.Context, client Client) error

func (f OperationFunc) Do(ctx context.Context, client Client) error {
	return f(ctx, client)
}

// Producer is the body of a memory benchmark. The returned value is held until the
// "after" sample is taken and then dropped.
type Producer interface {
	Produce(ctx context.Context) (interface{}, error)
}

// ProducerFunc adapts a function to the Producer interface
type ProducerFunc func(ctx context.Context) (interface{}, error)

func (f ProducerFunc) Produce(ctx context.Context) (interface{}, error) {
	return f(ctx)
}
