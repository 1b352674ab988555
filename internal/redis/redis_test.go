package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	mini := miniredis.RunT(t)

	client, err := New(context.Background(), mini.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mini.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNew_Unreachable(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	addr := mini.Addr()
	mini.Close()

	_, err = New(context.Background(), addr, "")
	assert.Error(t, err)
}
