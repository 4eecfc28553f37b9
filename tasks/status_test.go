package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// fakeKV backs the status registry with a map for tests.
type fakeKV struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttls[key] = expiration
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	v, ok := f.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func TestStatusRoundTrip(t *testing.T) {
	kv := newFakeKV()
	s := &StatusStore{kv: kv, ttl: time.Hour}

	err := s.Set(context.Background(), RenderStatus{
		TaskID: "abc",
		Status: StatusCompleted,
		URL:    "https://cdn.test/render_abc.mp4",
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusCompleted || got.URL != "https://cdn.test/render_abc.mp4" {
		t.Errorf("got %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}
	if kv.ttls[statusKey("abc")] != time.Hour {
		t.Errorf("ttl = %v", kv.ttls[statusKey("abc")])
	}
}

func TestStatusTransitionsOverwrite(t *testing.T) {
	s := &StatusStore{kv: newFakeKV(), ttl: time.Hour}
	ctx := context.Background()

	for _, st := range []string{StatusQueued, StatusProcessing, StatusFailed} {
		if err := s.Set(ctx, RenderStatus{TaskID: "t", Status: st, Error: "boom"}); err != nil {
			t.Fatalf("Set %s: %v", st, err)
		}
	}

	got, err := s.Get(ctx, "t")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusFailed || got.Error != "boom" {
		t.Errorf("got %+v", got)
	}
}

func TestStatusUnknownTask(t *testing.T) {
	s := &StatusStore{kv: newFakeKV(), ttl: time.Hour}

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v", err)
	}
}
