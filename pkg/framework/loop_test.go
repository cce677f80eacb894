package framework

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderRecorder struct {
	lock  sync.Mutex
	order []int
}

func (r *orderRecorder) controller(level int) Controller {
	return ControlFunc(func(cc ControlContext) error {
		r.lock.Lock()
		defer r.lock.Unlock()
		if cc.PriorityLevel() != level {
			return Abort(errors.New("wrong priority level"))
		}
		r.order = append(r.order, level)
		return nil
	})
}

func TestLoopPriorityOrder(t *testing.T) {
	var rec orderRecorder
	l := NewLoop()
	l.AddController(PrLvApp, rec.controller(PrLvApp))
	l.AddController(PrLvTop, rec.controller(PrLvTop))
	l.AddController(PrLvConsole, rec.controller(PrLvConsole))
	l.AddController(PrLvDrain, rec.controller(PrLvDrain))

	stop := errors.New("stop")
	l.AddController(PrLvIdle, ControlFunc(func(cc ControlContext) error {
		assert.Equal(t, uint64(1), cc.Iteration())
		return Abort(stop)
	}))

	err := l.Run(context.Background())
	require.True(t, errors.Is(err, stop))
	assert.Equal(t, []int{PrLvTop, PrLvDrain, PrLvConsole, PrLvApp}, rec.order)
}

func TestLoopNonFatalErrorContinues(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Millisecond
	l.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		if cc.Iteration() < 3 {
			return errors.New("transient")
		}
		return Abort(errors.New("done"))
	}))
	err := l.Run(context.Background())
	require.True(t, IsFatal(err))
	assert.Equal(t, uint64(3), l.iteration)
}

func TestLoopTriggerNext(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	l.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		if cc.Iteration() >= 5 {
			return Abort(context.Canceled)
		}
		LoopCtlFrom(cc.Context()).TriggerNext()
		return nil
	}))
	l.TriggerNext()
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()
	select {
	case err := <-done:
		require.True(t, IsFatal(err))
		assert.Equal(t, uint64(5), l.iteration)
	case <-time.After(time.Second):
		t.Fatal("TriggerNext did not wake the loop")
	}
}

func TestLoopCancel(t *testing.T) {
	l := NewLoop()
	started := make(chan struct{})
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	<-started
	cancel()
	assert.Equal(t, context.Canceled, <-done)
}

func TestLoopRunnableFatal(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	broken := errors.New("link broken")
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		return Abort(broken)
	}))
	err := l.Run(context.Background())
	require.True(t, errors.Is(err, broken))
}

func TestLoopCtlFrom(t *testing.T) {
	assert.Nil(t, LoopCtlFrom(context.Background()))
}

func TestAbort(t *testing.T) {
	assert.Nil(t, Abort(nil))
	err := Abort(errors.New("x"))
	assert.True(t, IsFatal(err))
	assert.Equal(t, err, Abort(err))
	assert.Equal(t, "fatal: x", err.Error())
	assert.False(t, IsFatal(errors.New("x")))
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	assert.Nil(t, errs.Add(nil).Aggregate())
	first := errors.New("first")
	errs.Add(first)
	assert.Equal(t, "first", errs.Aggregate().Error())
	errs.Add(errors.New("second"))
	assert.Equal(t, "Multiple errors:\nfirst\nsecond", errs.Error())
	assert.True(t, errors.Is(errs.Aggregate(), first))
}
