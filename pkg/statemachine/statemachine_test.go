package statemachine_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wagate/pkg/statemachine"
)

const (
	idle    = statemachine.StringState("idle")
	running = statemachine.StringState("running")
	stopped = statemachine.StringState("stopped")

	start = statemachine.StringEvent("start")
	stop  = statemachine.StringEvent("stop")
	pause = statemachine.StringEvent("pause")
)

func TestMachine_Fire(t *testing.T) {
	t.Parallel()

	t.Run("follows the table", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(idle,
			statemachine.WithTransition(idle, running, start),
			statemachine.WithTransition(running, stopped, stop),
		)

		require.NoError(t, m.Fire(start))
		assert.Equal(t, running, m.Current())
		require.NoError(t, m.Fire(stop))
		assert.True(t, m.Is(stopped))
		assert.False(t, m.Is(idle, running))
	})

	t.Run("reports missing edges", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(idle, statemachine.WithTransition(idle, running, start))

		err := m.Fire(pause)
		require.Error(t, err)
		assert.True(t, statemachine.IsNoTransitionAvailableError(err))
		assert.Contains(t, err.Error(), "'idle'")
		assert.Equal(t, idle, m.Current())
		assert.False(t, m.Allowed(pause))
		assert.True(t, m.Allowed(start))
		assert.False(t, m.Allowed(nil))
		assert.ErrorIs(t, m.Fire(nil), statemachine.ErrInvalidEvent)
	})
}

func TestMachine_Options(t *testing.T) {
	t.Parallel()

	t.Run("transitions from several sources", func(t *testing.T) {
		t.Parallel()
		m := statemachine.MustNew(idle,
			statemachine.WithTransition(idle, running, start),
			statemachine.WithTransitionsFrom([]statemachine.State{idle, running}, stopped, stop),
		)
		require.NoError(t, m.Fire(start))
		require.NoError(t, m.Fire(stop))
		assert.Equal(t, stopped, m.Current())
	})

	t.Run("observer sees every transition", func(t *testing.T) {
		t.Parallel()
		var seen []string
		m := statemachine.MustNew(idle,
			statemachine.WithTransition(idle, running, start),
			statemachine.WithTransition(running, running, start),
			statemachine.WithObserver(func(from, to statemachine.State, ev statemachine.Event) {
				seen = append(seen, from.Name()+">"+to.Name()+":"+ev.Name())
			}),
		)
		require.NoError(t, m.Fire(start))
		require.NoError(t, m.Fire(start))
		assert.Equal(t, []string{"idle>running:start", "running>running:start"}, seen)
	})

	t.Run("malformed tables are rejected", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.New(idle, statemachine.WithTransition(nil, running, start))
		assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

		_, err = statemachine.New(idle,
			statemachine.WithTransition(idle, running, start),
			statemachine.WithTransition(idle, stopped, start),
		)
		assert.ErrorIs(t, err, statemachine.ErrDuplicateEdge)

		_, err = statemachine.New(nil)
		assert.ErrorIs(t, err, statemachine.ErrNilInitialState)

		assert.Panics(t, func() {
			statemachine.MustNew(idle, statemachine.WithTransition(idle, nil, start))
		})
	})
}

func TestMachine_Concurrent(t *testing.T) {
	t.Parallel()

	m := statemachine.MustNew(idle,
		statemachine.WithTransition(idle, running, start),
		statemachine.WithTransition(running, idle, stop),
	)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = m.Fire(start)
				_ = m.Fire(stop)
				_ = m.Current()
			}
		}()
	}
	wg.Wait()

	assert.True(t, m.Is(idle, running))
}
