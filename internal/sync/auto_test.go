package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/existflow/weekplan/internal/model"
)

type fakeSource struct {
	snap model.Snapshot
	err  error
}

func (f fakeSource) SyncAll(context.Context) (model.Snapshot, error) {
	return f.snap, f.err
}

type sourceFunc func(ctx context.Context) (model.Snapshot, error)

func (f sourceFunc) SyncAll(ctx context.Context) (model.Snapshot, error) { return f(ctx) }

func TestSyncNowCallsOnPull(t *testing.T) {
	want := model.Snapshot{ProjectDefinitions: []model.Project{{ID: "p"}}}
	a := NewAutoSync(fakeSource{snap: want}, 0)

	var got model.Snapshot
	a.SetOnPull(func(s model.Snapshot, _ uint64) bool { got = s; return true })
	a.SetOnError(func(err error) { t.Errorf("unexpected error: %v", err) })

	if _, err := a.SyncNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(got.ProjectDefinitions) != 1 {
		t.Errorf("pulled = %+v", got)
	}
}

func TestSyncNowReportsError(t *testing.T) {
	boom := errors.New("offline")
	a := NewAutoSync(fakeSource{err: boom}, 0)

	var got error
	a.SetOnError(func(err error) { got = err })
	a.SetOnPull(func(model.Snapshot, uint64) bool { t.Error("pull callback on error"); return false })

	if _, err := a.SyncNow(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(got, boom) {
		t.Errorf("onError got %v", got)
	}
}

func TestSyncNowDropsRacedPull(t *testing.T) {
	tests := []struct {
		name      string
		busyAfter bool
		bump      bool
		wantPull  bool
	}{
		{"quiet board", false, false, true},
		{"write queued during pull", true, false, false},
		{"transition during pull", false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var version uint64 = 7
			busy := false
			source := sourceFunc(func(context.Context) (model.Snapshot, error) {
				busy = tt.busyAfter
				if tt.bump {
					version++
				}
				return model.Snapshot{}, nil
			})
			a := NewAutoSync(source, 0)
			a.SetBusy(func() bool { return busy })
			a.SetVersion(func() uint64 { return version })
			installed := false
			a.SetOnPull(func(_ model.Snapshot, v uint64) bool {
				if v != version {
					return false
				}
				installed = true
				return true
			})

			_, err := a.SyncNow(context.Background())
			if installed != tt.wantPull {
				t.Errorf("installed = %v, want %v", installed, tt.wantPull)
			}
			if tt.wantPull && err != nil {
				t.Errorf("err = %v", err)
			}
			if !tt.wantPull && !errors.Is(err, ErrStalePull) {
				t.Errorf("err = %v, want ErrStalePull", err)
			}
		})
	}
}

func TestPollLoopSkipsWhileBusy(t *testing.T) {
	a := NewAutoSync(fakeSource{}, 5*time.Millisecond)
	pulled := make(chan struct{}, 10)
	a.SetOnPull(func(model.Snapshot, uint64) bool { pulled <- struct{}{}; return true })
	busy := make(chan bool, 1)
	busy <- true
	a.SetBusy(func() bool {
		select {
		case b := <-busy:
			return b
		default:
			return false
		}
	})
	a.Start()
	defer a.Stop()

	select {
	case <-pulled:
	case <-time.After(5 * time.Second):
		t.Fatal("no pull after busy cleared")
	}
	if len(busy) != 0 {
		t.Error("busy was never consulted")
	}
	a.Stop()
}
