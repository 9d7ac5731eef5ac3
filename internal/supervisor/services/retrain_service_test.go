// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mfolsom1/eventreco/internal/connector"
	"github.com/mfolsom1/eventreco/internal/modelbuilder"
)

// mockBuilder is a test double for ModelBuilder.
type mockBuilder struct {
	mu         sync.Mutex
	buildCalls int
	result     modelbuilder.Result
	err        error
}

func (m *mockBuilder) Build(ctx context.Context) (modelbuilder.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buildCalls++
	return m.result, m.err
}

func (m *mockBuilder) getBuildCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buildCalls
}

func newTestConnector(t *testing.T) connector.Connector {
	conn, err := connector.NewFixtureConnector("")
	if err != nil {
		t.Fatalf("NewFixtureConnector: %v", err)
	}
	return conn
}

func TestRetrainService_String(t *testing.T) {
	svc := NewRetrainService(&mockBuilder{}, newTestConnector(t), RetrainServiceConfig{Interval: time.Hour}, zerolog.Nop())
	if got := svc.String(); got != "retrain-service" {
		t.Errorf("String() = %q, want %q", got, "retrain-service")
	}
}

func TestRetrainService_TrainOnStartup(t *testing.T) {
	builder := &mockBuilder{result: modelbuilder.Result{Version: "v1", EventCount: 10, UserCount: 5}}
	svc := NewRetrainService(builder, newTestConnector(t), RetrainServiceConfig{
		TrainOnStartup: true,
		Interval:       time.Hour,
		CheckInterval:  time.Minute,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if got := builder.getBuildCalls(); got != 1 {
		t.Errorf("Build() called %d times, want 1", got)
	}
}

func TestRetrainService_NoTrainOnStartup(t *testing.T) {
	builder := &mockBuilder{}
	svc := NewRetrainService(builder, newTestConnector(t), RetrainServiceConfig{
		TrainOnStartup: false,
		Interval:       time.Hour,
		CheckInterval:  time.Minute,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if got := builder.getBuildCalls(); got != 0 {
		t.Errorf("Build() called %d times, want 0", got)
	}
}

func TestRetrainService_ScheduledRebuild(t *testing.T) {
	builder := &mockBuilder{result: modelbuilder.Result{Version: "v1", EventCount: 10, UserCount: 5}}
	svc := NewRetrainService(builder, newTestConnector(t), RetrainServiceConfig{
		Interval:      30 * time.Millisecond,
		CheckInterval: 20 * time.Millisecond,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 130*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if got := builder.getBuildCalls(); got < 2 {
		t.Errorf("Build() called %d times, want >= 2", got)
	}
}

func TestRetrainService_GracefulShutdown(t *testing.T) {
	builder := &mockBuilder{}
	svc := NewRetrainService(builder, newTestConnector(t), RetrainServiceConfig{
		TrainOnStartup: false,
		Interval:       time.Hour,
		CheckInterval:  time.Minute,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not complete in time")
	}
}

func TestRetrainService_BuildErrorDoesNotPanic(t *testing.T) {
	builder := &mockBuilder{err: errors.New("build failed")}
	svc := NewRetrainService(builder, newTestConnector(t), RetrainServiceConfig{
		TrainOnStartup: true,
		Interval:       time.Hour,
		CheckInterval:  time.Minute,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if got := builder.getBuildCalls(); got != 1 {
		t.Errorf("Build() called %d times, want 1", got)
	}
	if !svc.lastBuild.IsZero() {
		t.Error("lastBuild should remain zero after a failed build")
	}
}

func TestShouldRetrain_DeltaFractionDisabled(t *testing.T) {
	svc := NewRetrainService(&mockBuilder{}, newTestConnector(t), RetrainServiceConfig{
		Interval:      time.Hour,
		DeltaFraction: 0,
	}, zerolog.Nop())
	svc.lastBuild = time.Now()

	if svc.shouldRetrain(context.Background()) {
		t.Error("shouldRetrain should be false with DeltaFraction disabled and interval not elapsed")
	}
}

func TestFractionDelta(t *testing.T) {
	cases := []struct {
		current, last int
		want          float64
	}{
		{10, 10, 0},
		{15, 10, 0.5},
		{5, 10, 0.5},
		{3, 0, 1},
		{0, 0, 0},
	}
	for _, tc := range cases {
		if got := fractionDelta(tc.current, tc.last); got != tc.want {
			t.Errorf("fractionDelta(%d, %d) = %v, want %v", tc.current, tc.last, got, tc.want)
		}
	}
}
