package syndication

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHooksSuspend(t *testing.T) {
	hooks := NewHooks(nil)
	var fired []int64
	hooks.On(HookContentSaved, func(ctx context.Context, id int64) error {
		fired = append(fired, id)
		return nil
	})

	ctx := context.Background()
	hooks.Fire(ctx, HookContentSaved, 1)

	outer, release := hooks.Suspend(ctx, HookContentSaved)
	inner, releaseInner := hooks.Suspend(outer, HookContentSaved)
	hooks.Fire(inner, HookContentSaved, 2)
	releaseInner()
	assert.True(t, hooks.Suspended(inner, HookContentSaved))
	hooks.Fire(inner, HookContentSaved, 3)

	release()
	release()
	assert.False(t, hooks.Suspended(outer, HookContentSaved))
	assert.False(t, hooks.Suspended(inner, HookContentSaved))
	hooks.Fire(outer, HookContentSaved, 4)

	assert.Equal(t, []int64{1, 4}, fired)
}

func TestHooksSuspendIsScopedToContext(t *testing.T) {
	hooks := NewHooks(nil)
	other := NewHooks(nil)

	var mu sync.Mutex
	fired := map[int64]bool{}
	record := func(ctx context.Context, id int64) error {
		mu.Lock()
		defer mu.Unlock()
		fired[id] = true
		return nil
	}
	hooks.On(HookContentSaved, record)
	other.On(HookContentSaved, record)

	suspended, release := hooks.Suspend(context.Background(), HookContentSaved)
	defer release()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hooks.Fire(context.Background(), HookContentSaved, 1)
	}()
	wg.Wait()

	hooks.Fire(suspended, HookContentSaved, 2)
	other.Fire(suspended, HookContentSaved, 3)
	hooks.Fire(suspended, "other.hook", 4)

	assert.Equal(t, map[int64]bool{1: true, 3: true}, fired)
	assert.False(t, hooks.Suspended(context.Background(), HookContentSaved))
	assert.False(t, other.Suspended(suspended, HookContentSaved))
}

func TestHooksHandlerErrorDoesNotStopOthers(t *testing.T) {
	hooks := NewHooks(nil)
	calls := 0
	hooks.On(HookContentSaved, func(context.Context, int64) error {
		calls++
		return errors.New("boom")
	})
	hooks.On(HookContentSaved, func(context.Context, int64) error {
		calls++
		return nil
	})

	hooks.Fire(context.Background(), HookContentSaved, 7)
	assert.Equal(t, 2, calls)
}
