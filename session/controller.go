package session

import (
	"context"
	"sync"
)

// Controller drives the state machine synchronously: every event is
// transitioned and its effects run to completion before Dispatch returns.
type Controller struct {
	runtime Runtime

	lock  sync.Mutex
	model Model
}

func NewController(authEnabled bool, runtime Runtime) *Controller {
	return &Controller{runtime: runtime, model: NewModel(authEnabled)}
}

// Start restores a cached session, or fetches the greeting when auth is
// disabled.
func (c *Controller) Start(ctx context.Context) Model {
	return c.Dispatch(ctx, Started{})
}

// Dispatch applies ev and every event its effects produce, and returns the
// resulting model.
func (c *Controller) Dispatch(ctx context.Context, ev Event) Model {
	c.lock.Lock()
	defer c.lock.Unlock()

	queue := []Event{ev}
	for len(queue) > 0 {
		var effects []Effect
		c.model, effects = Transition(c.model, queue[0])
		queue = queue[1:]
		for _, eff := range effects {
			queue = append(queue, c.runtime.Run(ctx, eff))
		}
	}
	return c.model
}

func (c *Controller) Model() Model {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.model
}
