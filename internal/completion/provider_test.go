package completion

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Completions(t *testing.T) {
	p := Static("Home", "About", "api-docs")
	ctx := context.Background()

	tests := []struct {
		prefix string
		want   []string
	}{
		{"", []string{"Home", "About", "api-docs"}},
		{"a", []string{"About", "api-docs"}},
		{"A", []string{"About", "api-docs"}},
		{"api", []string{"api-docs"}},
		{"h", []string{"Home"}},
		{"zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run("prefix "+tt.prefix, func(t *testing.T) {
			got, err := p.Completions(ctx, tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProvider_CachesUntilCleared(t *testing.T) {
	var calls int32
	values := []string{"one"}
	p := New(func(context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return values, nil
	})
	ctx := context.Background()

	_, err := p.Completions(ctx, "")
	require.NoError(t, err)
	values = []string{"one", "two"}
	got, err := p.Completions(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	p.ClearCache()
	got, err = p.Completions(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestProvider_FetchErrorIsNotCached(t *testing.T) {
	fail := true
	p := New(func(context.Context) ([]string, error) {
		if fail {
			return nil, errors.New("backend down")
		}
		return []string{"ok"}, nil
	})
	ctx := context.Background()

	_, err := p.Completions(ctx, "")
	assert.ErrorContains(t, err, "backend down")

	fail = false
	got, err := p.Completions(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, got)
}

func TestProvider_ConcurrentFirstFetch(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	p := New(func(context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []string{"x"}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.Completions(context.Background(), "")
			assert.NoError(t, err)
			assert.Equal(t, []string{"x"}, got)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestProvider_ClearDuringFetchForcesRefetch(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	p := New(func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return []string{"stale"}, nil
		}
		return []string{"fresh"}, nil
	})
	ctx := context.Background()

	done := make(chan []string)
	go func() {
		got, err := p.Completions(ctx, "")
		assert.NoError(t, err)
		done <- got
	}()

	<-started
	p.ClearCache()
	close(release)
	assert.Equal(t, []string{"stale"}, <-done)

	got, err := p.Completions(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestProvider_NilFetch(t *testing.T) {
	_, err := New(nil).Completions(context.Background(), "")
	assert.Error(t, err)
}

func TestFilter_DoesNotAlias(t *testing.T) {
	values := []string{"a", "b"}
	out := Filter(values, "")
	out[0] = "changed"
	assert.Equal(t, "a", values[0])
}

func TestCatalog(t *testing.T) {
	catalog := NewCatalog()
	tones := Static("formal", "friendly")

	require.NoError(t, catalog.Register("core/completion.Tones", tones))
	assert.ErrorContains(t, catalog.Register("core/completion.Tones", tones), "already registered")
	assert.Error(t, catalog.Register("", tones))
	assert.Error(t, catalog.Register("nil", nil))

	source, ok := catalog.Resolve("core/completion.Tones")
	require.True(t, ok)
	got, err := source.Completions(context.Background(), "FR")
	require.NoError(t, err)
	assert.Equal(t, []string{"friendly"}, got)

	_, ok = catalog.Resolve("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"core/completion.Tones"}, catalog.Refs())

	catalog.ClearAll()
}
