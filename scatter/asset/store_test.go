package asset

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/df-mc/foliage/scatter/dither"
	"golang.org/x/image/bmp"
)

func writeImage(t *testing.T, path string, encode func(f *os.File, img image.Image) error) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		img.Set(x, 0, color.White)
		img.Set(x, 1, color.NRGBA{A: 255})
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %v: %v", path, err)
	}
	defer f.Close()
	if err := encode(f, img); err != nil {
		t.Fatalf("encode %v: %v", path, err)
	}
}

func encodePNG(f *os.File, img image.Image) error { return png.Encode(f, img) }
func encodeBMP(f *os.File, img image.Image) error { return bmp.Encode(f, img) }

func TestStoreLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "density.png")
	writeImage(t, path, encodePNG)

	s := NewStore(nil)
	h, err := s.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if h != HandleFor(path) {
		t.Fatalf("expected handle derived from the path")
	}
	f, err := s.Field(h)
	if err != nil {
		t.Fatalf("expected field to be resolvable after Load, got %v", err)
	}
	if f.Width() != 4 || f.Height() != 2 {
		t.Fatalf("expected a 4x2 field, got %dx%d", f.Width(), f.Height())
	}
	if f.At(0, 0) != 255 || f.At(3, 1) != 0 {
		t.Fatalf("unexpected intensities %d and %d", f.At(0, 0), f.At(3, 1))
	}
}

func TestStoreLoadAsync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "density.bmp")
	writeImage(t, path, encodeBMP)

	s := NewStore(nil)
	h := s.LoadAsync(path)
	s.Wait()
	if _, err := s.Field(h); err != nil {
		t.Fatalf("expected field to be resolvable after Wait, got %v", err)
	}
	if err := s.Err(h); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
}

func TestStoreLoadAsyncFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewStore(nil)
	h := s.LoadAsync(path)
	s.Wait()
	_, err := s.Field(h)
	if !errors.Is(err, dither.ErrUnsupportedImageFormat) {
		t.Fatalf("expected ErrUnsupportedImageFormat from Field, got %v", err)
	}
	if errors.Is(err, ErrNotResolved) {
		t.Fatalf("expected failed load to be distinguishable from a pending one")
	}
	if s.Err(h) == nil {
		t.Fatalf("expected load error to be recorded")
	}
}

func TestStoreLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewStore(nil).Load(path); !errors.Is(err, ErrEmptyData) {
		t.Fatalf("expected ErrEmptyData, got %v", err)
	}
}

func TestStoreLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.png"), encodePNG)
	writeImage(t, filepath.Join(dir, "b.bmp"), encodeBMP)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := NewStore(nil)
	handles, err := s.LoadDir(context.Background(), dir, 2)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(handles) != 2 || s.Len() != 2 {
		t.Fatalf("expected 2 images, got %d handles and %d fields", len(handles), s.Len())
	}
	if handles["a.png"] != HandleFor(filepath.Join(dir, "a.png")) {
		t.Fatalf("expected LoadDir handles to match HandleFor")
	}
}

func TestStoreSetAndRemove(t *testing.T) {
	s := NewStore(nil)
	h := NewHandle()
	if _, err := s.Field(h); !errors.Is(err, ErrNotResolved) {
		t.Fatalf("expected ErrNotResolved for unknown handle, got %v", err)
	}
	if h.IsZero() || !(Handle{}).IsZero() {
		t.Fatalf("unexpected zero handle check")
	}
	s.Set(h, nil)
	s.Remove(h)
	if s.Len() != 0 {
		t.Fatalf("expected empty store after Remove")
	}
}

func TestStoreLoadAsyncClearsEarlierFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "density.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewStore(nil)
	if _, err := s.Load(path); err == nil {
		t.Fatalf("expected first load to fail")
	}
	writeImage(t, path, encodePNG)
	h := s.LoadAsync(path)
	s.Wait()
	if _, err := s.Field(h); err != nil {
		t.Fatalf("expected reload to replace the failure, got %v", err)
	}
}
