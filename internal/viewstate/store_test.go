package viewstate_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
	"github.com/msomdec/solifound/internal/service"
	"github.com/msomdec/solifound/internal/viewstate"
)

type countingLoader struct {
	loads int
	view  service.ProfileView
}

func (l *countingLoader) load(ctx context.Context, id string) (*service.ProfileView, error) {
	l.loads++
	v := l.view
	return &v, nil
}

func newLoader() *countingLoader {
	return &countingLoader{view: service.ProfileView{
		Profile: &domain.UserProfile{UserID: "u1", Nombre: "Ana"},
		Education: form.List[domain.Education]{
			{ID: "e1", Titulo: "Grado", Institucion: "UCM", FechaInicio: "2018-09-01"},
		},
	}}
}

func TestCache_GetMountsOnceThenServesStoredState(t *testing.T) {
	loader := newLoader()
	cache := viewstate.New(viewstate.NewMemoryStore(time.Minute), loader.load)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		view, err := cache.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if diff := cmp.Diff(loader.view.Education, view.Education); diff != "" {
			t.Fatalf("education mismatch (-want +got):\n%s", diff)
		}
	}
	if loader.loads != 1 {
		t.Fatalf("expected a single load, got %d", loader.loads)
	}
}

func TestCache_UpdateAppliesPatchWithoutReload(t *testing.T) {
	loader := newLoader()
	cache := viewstate.New(viewstate.NewMemoryStore(time.Minute), loader.load)
	ctx := context.Background()

	if _, err := cache.Mount(ctx, "u1"); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	created := domain.Education{ID: "e2", Titulo: "Máster", Institucion: "UPM", FechaInicio: "2022-09-01"}
	err := cache.Update(ctx, "u1", func(v *service.ProfileView) {
		v.Education = v.Education.Apply(form.Patch[domain.Education]{Op: form.OpCreate, Record: created})
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	view, err := cache.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := form.List[domain.Education]{created, loader.view.Education[0]}
	if diff := cmp.Diff(want, view.Education); diff != "" {
		t.Fatalf("education mismatch (-want +got):\n%s", diff)
	}
	if loader.loads != 1 {
		t.Fatalf("expected no reload, got %d loads", loader.loads)
	}
}

func TestCache_UpdateOfMissingStateIsNoop(t *testing.T) {
	loader := newLoader()
	store := viewstate.NewMemoryStore(time.Minute)
	cache := viewstate.New(store, loader.load)
	ctx := context.Background()

	called := false
	if err := cache.Update(ctx, "u1", func(*service.ProfileView) { called = true }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if called {
		t.Fatal("expected fn not to run without stored state")
	}
	if _, err := store.Get(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected nothing stored, got %v", err)
	}
}

func TestCache_DropForcesRemount(t *testing.T) {
	loader := newLoader()
	cache := viewstate.New(viewstate.NewMemoryStore(time.Minute), loader.load)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "u1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := cache.Drop(ctx, "u1"); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, err := cache.Get(ctx, "u1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loader.loads != 2 {
		t.Fatalf("expected remount after drop, got %d loads", loader.loads)
	}
}

func TestMemoryStore_Expires(t *testing.T) {
	store := viewstate.NewMemoryStore(time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, "u1", []byte(`{}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Get(ctx, "u1"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	expired := viewstate.NewMemoryStore(-time.Second)
	if err := expired.Put(ctx, "u1", []byte(`{}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := expired.Get(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected expired entry to be gone, got %v", err)
	}
}

// createConcurrently applies n create patches for u1 from n goroutines,
// spreading them over the given caches.
func createConcurrently(t *testing.T, caches []*viewstate.Cache, n int) {
	t.Helper()
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		cache := caches[i%len(caches)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			created := domain.Education{ID: fmt.Sprintf("new-%d", i), Titulo: "Curso", Institucion: "UNED", FechaInicio: "2023-01-01"}
			errs <- cache.Update(ctx, "u1", func(v *service.ProfileView) {
				time.Sleep(time.Millisecond)
				v.Education = v.Education.Apply(form.Patch[domain.Education]{Op: form.OpCreate, Record: created})
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
}

func TestCache_ConcurrentUpdatesKeepEveryPatch(t *testing.T) {
	loader := newLoader()
	cache := viewstate.New(viewstate.NewMemoryStore(time.Minute), loader.load)
	ctx := context.Background()
	if _, err := cache.Mount(ctx, "u1"); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	createConcurrently(t, []*viewstate.Cache{cache}, 50)

	view, err := cache.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(view.Education) != 51 {
		t.Fatalf("expected 51 education entries, got %d", len(view.Education))
	}
}

func TestMemoryStore_UpdateMissingEntry(t *testing.T) {
	store := viewstate.NewMemoryStore(time.Minute)
	err := store.Update(context.Background(), "u1", func([]byte) ([]byte, error) {
		t.Fatal("fn must not run without an entry")
		return nil, nil
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestRedisStore runs against a real server when REDIS_TEST_URL is set.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()

	store, err := viewstate.NewRedisStore(ctx, url, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	id := "test-" + t.Name()
	if err := store.Put(ctx, id, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Fatalf("unexpected value %s", data)
	}
	if err := store.Drop(ctx, id); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, err := store.Get(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after drop, got %v", err)
	}

	// Two caches on one Redis stand in for two server instances.
	loader := newLoader()
	first := viewstate.New(store, loader.load)
	second := viewstate.New(store, loader.load)
	if err := store.Drop(ctx, "u1"); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	t.Cleanup(func() { store.Drop(ctx, "u1") })
	if _, err := first.Mount(ctx, "u1"); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	createConcurrently(t, []*viewstate.Cache{first, second}, 20)

	view, err := first.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// Heavy contention may drop the entry instead, which remounts from the
	// loader; either way no patch is silently lost.
	if n := len(view.Education); n != 21 && loader.loads < 2 {
		t.Fatalf("expected 21 education entries, got %d", n)
	}
}
