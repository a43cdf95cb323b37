package mock_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/wagate/internal/credentials"
	"github.com/dmitrymomot/wagate/internal/engine/mock"
	"github.com/dmitrymomot/wagate/internal/session"
)

func collect() (func(session.Event), <-chan session.Event) {
	ch := make(chan session.Event, 32)
	return func(ev session.Event) { ch <- ev }, ch
}

func next(t *testing.T, ch <-chan session.Event) session.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return session.Event{}
	}
}

func TestEngine_PairedConnectionOpens(t *testing.T) {
	t.Parallel()

	e := mock.New(mock.Config{ConnectDelay: 10 * time.Millisecond})
	handler, events := collect()

	h, err := e.Connect(context.Background(), credentials.Bundle{mock.CredsKey: []byte("{}")}, handler)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	assert.Equal(t, session.EventOpen, next(t, events).Kind)

	require.NoError(t, h.Send(context.Background(), "1@s.whatsapp.net", "hi"))
	out := e.Outbox()
	require.Len(t, out, 1)
	assert.Equal(t, "1@s.whatsapp.net", out[0].To)
	assert.Equal(t, "hi", out[0].Text)
}

func TestEngine_PairingFlow(t *testing.T) {
	t.Parallel()

	e := mock.New(mock.Config{QRInterval: 20 * time.Millisecond, ScanAfter: 70 * time.Millisecond})
	handler, events := collect()

	h, err := e.Connect(context.Background(), nil, handler)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	first := next(t, events)
	require.Equal(t, session.EventPairingChallenge, first.Kind)
	assert.True(t, strings.HasPrefix(first.Challenge, "2@"))

	assert.ErrorIs(t, h.Send(context.Background(), "1@s.whatsapp.net", "hi"), mock.ErrNotOpen)

	var challenges int
	for {
		ev := next(t, events)
		if ev.Kind == session.EventPairingChallenge {
			challenges++
			continue
		}
		require.Equal(t, session.EventCredentialsUpdate, ev.Kind)
		assert.NotEmpty(t, ev.Credentials[mock.CredsKey])
		break
	}
	assert.Positive(t, challenges, "challenges rotate until the scan")
	assert.Equal(t, session.EventOpen, next(t, events).Kind)
}

func TestEngine_Drop(t *testing.T) {
	t.Parallel()

	e := mock.New(mock.Config{DropAfter: 10 * time.Millisecond, DropCode: 515})
	handler, events := collect()

	h, err := e.Connect(context.Background(), credentials.Bundle{mock.CredsKey: []byte("{}")}, handler)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	assert.Equal(t, session.EventOpen, next(t, events).Kind)
	ev := next(t, events)
	assert.Equal(t, session.EventClose, ev.Kind)
	assert.Equal(t, 515, ev.StatusCode)
	assert.Equal(t, session.Recoverable, session.Classify(ev.StatusCode))
}

func TestEngine_Logout(t *testing.T) {
	t.Parallel()

	e := mock.New(mock.Config{})
	handler, events := collect()

	h, err := e.Connect(context.Background(), credentials.Bundle{mock.CredsKey: []byte("{}")}, handler)
	require.NoError(t, err)
	require.Equal(t, session.EventOpen, next(t, events).Kind)

	require.NoError(t, h.Logout(context.Background()))
	ev := next(t, events)
	assert.Equal(t, session.EventClose, ev.Kind)
	assert.Equal(t, session.StatusUnauthorized, ev.StatusCode)

	assert.ErrorIs(t, h.Send(context.Background(), "1@s.whatsapp.net", "hi"), mock.ErrClosed)
	assert.ErrorIs(t, h.Logout(context.Background()), mock.ErrClosed)
	assert.NoError(t, h.Close())
}

func TestEngine_FailingRecipient(t *testing.T) {
	t.Parallel()

	e := mock.New(mock.Config{FailSendTo: []string{"666@s.whatsapp.net"}})
	handler, events := collect()

	h, err := e.Connect(context.Background(), credentials.Bundle{mock.CredsKey: []byte("{}")}, handler)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	require.Equal(t, session.EventOpen, next(t, events).Kind)

	assert.ErrorIs(t, h.Send(context.Background(), "666@s.whatsapp.net", "hi"), mock.ErrSendFailed)
	assert.Empty(t, e.Outbox())
}

func TestEngine_CloseStopsEvents(t *testing.T) {
	t.Parallel()

	e := mock.New(mock.Config{QRInterval: 5 * time.Millisecond})
	handler, events := collect()

	h, err := e.Connect(context.Background(), nil, handler)
	require.NoError(t, err)
	require.Equal(t, session.EventPairingChallenge, next(t, events).Kind)
	require.NoError(t, h.Close())

	// Drain anything emitted before Close took effect.
	time.Sleep(20 * time.Millisecond)
	for len(events) > 0 {
		<-events
	}
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, events)
}

func TestEngine_WithSessionManager(t *testing.T) {
	t.Parallel()

	e := mock.New(mock.Config{QRInterval: time.Second, ScanAfter: 20 * time.Millisecond})
	store := credentials.NewMemoryStore()
	m, err := session.New(e, store)
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)

	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, m.LoggedIn, 2*time.Second, 5*time.Millisecond)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, stored[mock.CredsKey], "paired credentials are persisted")

	require.NoError(t, m.Send(context.Background(), "15551234567", "hi"))
	assert.Equal(t, "15551234567@s.whatsapp.net", e.Outbox()[0].To)

	require.NoError(t, m.Logout(context.Background()))
	assert.Equal(t, session.StateLoggedOut, m.Status())
	stored, err = store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}
