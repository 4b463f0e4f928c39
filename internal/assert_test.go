package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssertf(t *testing.T) {
	ctx := context.Background()
	require.NotPanics(t, func() {
		Assertf(ctx, true, "must not fire")
	})
	require.Panics(t, func() {
		Assertf(ctx, false, "the value is %d", 42)
	})
	require.Panics(t, func() {
		Assertf(ctx, false, "")
	})
}
