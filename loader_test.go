package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/vfs"
)

// stubTexture is the runtime object the stub loader produces.
type stubTexture struct {
	path string
}

// stubLoader counts constructions so tests can assert cache hits.
type stubLoader struct {
	assetType data.AssetType

	mu      sync.Mutex
	loads   int
	fail    error
	gate    chan struct{}
	entered chan struct{}
	order   []data.GUID
}

func (s *stubLoader) AssetType() data.AssetType {
	return s.assetType
}

func (s *stubLoader) Load(ctx context.Context, fs vfs.FileSystem, meta *data.AssetMetadata) (any, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}

	s.mu.Lock()
	s.loads++
	s.order = append(s.order, meta.ID)
	fail := s.fail
	s.mu.Unlock()

	if fail != nil {
		return nil, fail
	}
	return &stubTexture{path: meta.VirtualPath}, nil
}

func newLoaderFixture(t *testing.T) (*Loader, *Registry, *stubLoader) {
	t.Helper()

	registry := newTestRegistry(t)
	stub := &stubLoader{assetType: data.TypeTexture}

	loader := NewLoader(registry, vfs.NewMemoryFS(), nil)
	loader.RegisterLoader(stub)
	return loader, registry, stub
}

func TestLoader_LoadAndCache(t *testing.T) {
	loader, registry, stub := newLoaderFixture(t)

	meta := testMeta("/textures/rock.png", data.TypeTexture)
	registry.Register(meta)

	first, err := loader.Load(t.Context(), meta.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, err := loader.Load(t.Context(), meta.ID)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if stub.loads != 1 {
		t.Errorf("object constructed %d times, want 1", stub.loads)
	}
	if loader.RefCount(meta.ID) != 2 {
		t.Errorf("refcount = %d, want 2", loader.RefCount(meta.ID))
	}

	tex, ok := As[*stubTexture](first)
	if !ok {
		t.Fatal("As failed to unwrap")
	}
	if tex.path != "/textures/rock.png" {
		t.Errorf("unexpected path %q", tex.path)
	}
	if first.Value() != second.Value() {
		t.Error("cache returned distinct objects")
	}
}

func TestLoader_ReleaseIsIdempotent(t *testing.T) {
	loader, registry, _ := newLoaderFixture(t)

	meta := testMeta("/textures/rock.png", data.TypeTexture)
	registry.Register(meta)

	handle, err := loader.Load(t.Context(), meta.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	handle.Release()
	handle.Release()
	handle.Release()

	if got := loader.RefCount(meta.ID); got != 0 {
		t.Errorf("refcount = %d after repeated Release, want 0", got)
	}
	if !loader.IsLoaded(meta.ID) {
		t.Error("Release evicted the object; only UnloadUnused should")
	}
}

func TestLoader_UnloadUnused(t *testing.T) {
	loader, registry, _ := newLoaderFixture(t)

	held := testMeta("/textures/held.png", data.TypeTexture)
	idle := testMeta("/textures/idle.png", data.TypeTexture)
	registry.Register(held)
	registry.Register(idle)

	heldHandle, _ := loader.Load(t.Context(), held.ID)
	idleHandle, _ := loader.Load(t.Context(), idle.ID)
	idleHandle.Release()

	if evicted := loader.UnloadUnused(); evicted != 1 {
		t.Errorf("evicted %d, want 1", evicted)
	}
	if loader.IsLoaded(idle.ID) {
		t.Error("unused object survived eviction")
	}
	if !loader.IsLoaded(held.ID) {
		t.Error("held object evicted")
	}

	heldHandle.Release()
	if evicted := loader.UnloadUnused(); evicted != 1 {
		t.Errorf("evicted %d on second pass, want 1", evicted)
	}
}

func TestLoader_Errors(t *testing.T) {
	loader, registry, stub := newLoaderFixture(t)

	if _, err := loader.Load(t.Context(), data.NewGUID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	model := testMeta("/models/crate.obj", data.TypeModel)
	registry.Register(model)
	if _, err := loader.Load(t.Context(), model.ID); !errors.Is(err, ErrNoLoader) {
		t.Errorf("expected ErrNoLoader, got %v", err)
	}

	failing := testMeta("/textures/bad.png", data.TypeTexture)
	registry.Register(failing)
	stub.fail = fmt.Errorf("decode error")
	if _, err := loader.Load(t.Context(), failing.ID); err == nil {
		t.Error("expected load failure to propagate")
	}
	if loader.IsLoaded(failing.ID) {
		t.Error("failed load left a cache entry")
	}
}

func TestLoader_ConcurrentFirstLoadConstructsOnce(t *testing.T) {
	loader, registry, stub := newLoaderFixture(t)
	stub.gate = make(chan struct{})
	stub.entered = make(chan struct{}, 2)

	meta := testMeta("/textures/rock.png", data.TypeTexture)
	registry.Register(meta)

	handles := make(chan *Handle, 2)
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			handle, err := loader.Load(context.Background(), meta.ID)
			handles <- handle
			errs <- err
		}()
	}

	// Only the first caller enters construction; the second waits on
	// the in-flight entry instead.
	<-stub.entered
	stub.gate <- struct{}{}

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	first, second := <-handles, <-handles
	if first.Value() != second.Value() {
		t.Error("concurrent loads returned distinct objects")
	}
	if stub.loads != 1 {
		t.Errorf("object constructed %d times, want 1", stub.loads)
	}
	if loader.RefCount(meta.ID) != 2 {
		t.Errorf("refcount = %d, want 2", loader.RefCount(meta.ID))
	}
}

func TestLoader_DistinctAssetsLoadInParallel(t *testing.T) {
	loader, registry, stub := newLoaderFixture(t)
	stub.gate = make(chan struct{})
	stub.entered = make(chan struct{}, 2)

	rock := testMeta("/textures/rock.png", data.TypeTexture)
	moss := testMeta("/textures/moss.png", data.TypeTexture)
	registry.Register(rock)
	registry.Register(moss)

	errs := make(chan error, 2)
	for _, id := range []data.GUID{rock.ID, moss.ID} {
		go func(id data.GUID) {
			_, err := loader.Load(context.Background(), id)
			errs <- err
		}(id)
	}

	// Both constructions sit inside the type loader at once, so
	// loading one asset never blocks behind another.
	<-stub.entered
	<-stub.entered
	stub.gate <- struct{}{}
	stub.gate <- struct{}{}

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}
	if loader.LoadedCount() != 2 {
		t.Errorf("cached %d objects, want 2", loader.LoadedCount())
	}
}

func TestLoader_LoadByPath(t *testing.T) {
	loader, registry, _ := newLoaderFixture(t)

	meta := testMeta("/textures/rock.png", data.TypeTexture)
	registry.Register(meta)

	handle, err := loader.LoadByPath(t.Context(), "/Textures/Rock.PNG")
	if err != nil {
		t.Fatalf("LoadByPath failed: %v", err)
	}
	if handle.ID() != meta.ID {
		t.Error("wrong asset resolved")
	}

	if _, err := loader.LoadByPath(t.Context(), "/missing.png"); !errors.Is(err, ErrPathNotFound) {
		t.Errorf("expected ErrPathNotFound, got %v", err)
	}
}

func TestLoader_Unload(t *testing.T) {
	loader, registry, _ := newLoaderFixture(t)

	meta := testMeta("/textures/rock.png", data.TypeTexture)
	registry.Register(meta)

	loader.Load(t.Context(), meta.ID)
	if !loader.Unload(meta.ID) {
		t.Fatal("Unload failed")
	}
	if loader.Unload(meta.ID) {
		t.Error("second Unload succeeded")
	}
	if loader.LoadedCount() != 0 {
		t.Error("cache not empty after Unload")
	}
}
