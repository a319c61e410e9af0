package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ n int }

func TestOnRunsHandlersInRegistrationOrder(t *testing.T) {
	b := New()
	var got []string
	On(b, func(_ context.Context, p *ping) { got = append(got, "first"); p.n++ })
	On(b, func(_ context.Context, p *ping) { got = append(got, "second"); p.n++ })

	p := &ping{}
	Emit(context.Background(), b, p)

	require.Equal(t, []string{"first", "second"}, got)
	require.Equal(t, 2, p.n)
}

func TestUnsubscribeRemovesOnlyThatHandler(t *testing.T) {
	b := New()
	var got []string
	unsubFirst := On(b, func(context.Context, ping) { got = append(got, "first") })
	On(b, func(context.Context, ping) { got = append(got, "second") })

	unsubFirst()
	Emit(context.Background(), b, ping{})

	require.Equal(t, []string{"second"}, got)
}

func TestEmitDispatchesByType(t *testing.T) {
	b := New()
	calls := 0
	On(b, func(context.Context, ping) { calls++ })

	Emit(context.Background(), b, &ping{})
	Emit(context.Background(), b, "unrelated")
	require.Zero(t, calls)

	Emit(context.Background(), b, ping{})
	require.Equal(t, 1, calls)
}

func TestNilBusIsNoop(t *testing.T) {
	var b *Bus
	unsub := On(b, func(context.Context, ping) { t.Fatal("unexpected call") })
	Emit(context.Background(), b, ping{})
	unsub()
}

func TestGlobalBus(t *testing.T) {
	Use(New())
	defer Use(nil)

	calls := 0
	unsub := Subscribe(func(context.Context, ping) { calls++ })
	Publish(context.Background(), ping{})
	unsub()
	Publish(context.Background(), ping{})

	require.Equal(t, 1, calls)
}
