package syncengine

// Op tracks one in-flight persist request.
type Op struct {
	done chan struct{}
	err  error
}

func newOp() *Op {
	return &Op{done: make(chan struct{})}
}

func failedOp(err error) *Op {
	op := newOp()
	op.finish(err)
	return op
}

func (o *Op) finish(err error) {
	o.err = err
	close(o.done)
}

// Done is closed once the remote has answered and local state is reconciled.
func (o *Op) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the operation resolves and returns its error.
func (o *Op) Wait() error {
	<-o.done
	return o.err
}

// Err returns the operation error, or nil while it is still in flight.
func (o *Op) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}
