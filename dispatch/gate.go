package dispatch

import "context"

// Gate is a binary permit shared by all light resources. It starts empty;
// Post makes one permit available and further posts saturate.
type Gate struct {
	permit chan struct{}
}

// NewGate creates an empty gate.
func NewGate() *Gate {
	return &Gate{permit: make(chan struct{}, 1)}
}

// Post releases the permit. It never blocks.
func (g *Gate) Post() {
	select {
	case g.permit <- struct{}{}:
	default:
	}
}

// Wait takes the permit, blocking until one is posted or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.permit:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
