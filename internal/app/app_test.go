package app

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"sync"
	"testing"
	"time"

	"pmwatch/internal/mqtt"
	"pmwatch/internal/reading"
	"pmwatch/internal/trend"
)

func newServer() *http.Server {
	return &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- serve(ctx, newServer(), nil) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("serve() = %v; want context.Canceled", err)
		}
	case <-time.After(shutdownTimeout):
		t.Fatal("serve() did not return after cancel")
	}
}

func TestServe_ReturnsFatal(t *testing.T) {
	boom := errors.New("connect to broker: refused")
	fatal := make(chan error, 1)
	fatal <- boom

	err := serve(context.Background(), newServer(), fatal)
	if !errors.Is(err, boom) {
		t.Fatalf("serve() = %v; want %v", err, boom)
	}
}

func TestServe_ListenError(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:-1", Handler: http.NotFoundHandler()}
	if err := serve(context.Background(), srv, nil); err == nil {
		t.Fatal("serve() = nil; want listen error")
	}
}

type fakePublisher struct {
	mu         sync.Mutex
	connectErr error
	publishErr error
	published  []reading.Reading
	onPublish  func(n int)
	closed     bool
}

func (f *fakePublisher) Connect(context.Context) error { return f.connectErr }

func (f *fakePublisher) Publish(r reading.Reading) error {
	f.mu.Lock()
	f.published = append(f.published, r)
	n := len(f.published)
	f.mu.Unlock()
	if f.onPublish != nil {
		f.onPublish(n)
	}
	return f.publishErr
}

func (f *fakePublisher) Disconnect() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func TestSimulate_PublishesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := &fakePublisher{}
	pub.onPublish = func(n int) {
		if n == 3 {
			cancel()
		}
	}
	walker := trend.NewWalker(rand.New(rand.NewPCG(5, 6)))

	err := simulate(ctx, pub, walker, time.Millisecond, time.Now)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("simulate() = %v; want context.Canceled", err)
	}
	if len(pub.published) < 3 {
		t.Errorf("published %d readings; want at least 3", len(pub.published))
	}
	if !pub.closed {
		t.Error("publisher not disconnected")
	}
}

func TestSimulate_KeepsGoingAfterPublishError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := &fakePublisher{publishErr: mqtt.ErrNotConnected}
	pub.onPublish = func(n int) {
		if n == 2 {
			cancel()
		}
	}

	err := simulate(ctx, pub, trend.NewWalker(nil), time.Millisecond, time.Now)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("simulate() = %v; want context.Canceled", err)
	}
	if len(pub.published) < 2 {
		t.Errorf("published %d; want at least 2", len(pub.published))
	}
}

func TestSimulate_ConnectError(t *testing.T) {
	boom := errors.New("no broker")
	pub := &fakePublisher{connectErr: boom}

	err := simulate(context.Background(), pub, trend.NewWalker(nil), time.Second, time.Now)
	if !errors.Is(err, boom) {
		t.Fatalf("simulate() = %v; want %v", err, boom)
	}
	if len(pub.published) != 0 {
		t.Errorf("published %d; want 0", len(pub.published))
	}
	if !pub.closed {
		t.Error("publisher not disconnected after connect error")
	}
}
