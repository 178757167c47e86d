package zbd

import (
	"os"
	"testing"

	"github.com/behrlich/go-zbd/internal/zone"
)

func newTestFile(t *testing.T, size int64) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "zbd-test-*")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	return f.Name()
}

func TestInitDiscoversSyntheticLayout(t *testing.T) {
	path := newTestFile(t, 4<<20)
	w := &Worker{Path: path, Offset: 0, Size: 4 << 20, MinBS: 4096}
	defer Free(w)

	if err := Init(w, NewMockReporter(4, 2048)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if w.device == nil {
		t.Fatal("expected device to be populated after Init")
	}
}

func TestInitRejectsMismatchedBlockSize(t *testing.T) {
	path := newTestFile(t, 4<<20)
	w := &Worker{Path: path, Offset: 0, Size: 4 << 20, MinBS: 1000, Verify: true}
	defer Free(w)

	err := Init(w, NewMockReporter(4, 2048))
	if err == nil {
		t.Fatal("expected an error for a block size that doesn't divide the zone size")
	}
	if !IsCode(err, ErrCodeBlockSizeMismatch) {
		t.Errorf("expected ErrCodeBlockSizeMismatch, got %v", err)
	}
}

func TestAdjustWriteThenPostSubmitAdvancesWritePointer(t *testing.T) {
	path := newTestFile(t, 4<<20)
	w := &Worker{Path: path, Offset: 0, Size: 4 << 20, MinBS: 4096, MaxBS: 4096}
	defer Free(w)

	if err := Init(w, NewMockReporter(4, 2048)); err != nil {
		t.Fatalf("Init: %v", err)
	}

	io := &IO{Dir: DirWrite, Offset: 0, Length: 4096}
	decision, err := Adjust(w, io)
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if decision != Accept {
		t.Fatalf("expected Accept, got %v", decision)
	}

	z := w.device.Zone(0)
	wpBefore := z.Wp
	PostSubmit(w, io, true)
	if z.Wp != wpBefore+io.Length>>9 {
		t.Errorf("expected write pointer to advance by %d sectors, got wp=%d (was %d)", io.Length>>9, z.Wp, wpBefore)
	}
}

func TestAdjustConventionalZonePassesThrough(t *testing.T) {
	path := newTestFile(t, 4<<20)
	w := &Worker{Path: path, Offset: 0, Size: 4 << 20, MinBS: 4096, MaxBS: 4096}
	defer Free(w)

	// initZoneInfo (the path a regular file always takes) ignores the
	// Reporter's canned zone types, so force the synthetic layout's first
	// zone conventional directly.
	if err := Init(w, NewMockReporter(4, 2048)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	w.device.Zone(0).Type = zone.TypeConventional

	io := &IO{Dir: DirWrite, Offset: 100 << 9, Length: 4096}
	decision, err := Adjust(w, io)
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if decision != Accept {
		t.Fatalf("expected Accept, got %v", decision)
	}
	if io.Offset != 100<<9 {
		t.Errorf("expected conventional-zone offset unchanged, got %d", io.Offset)
	}
}

func TestFreeReleasesRegistryEntry(t *testing.T) {
	path := newTestFile(t, 4<<20)
	w := &Worker{Path: path, Offset: 0, Size: 4 << 20, MinBS: 4096}
	if err := Init(w, NewMockReporter(4, 2048)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if defaultRegistry.Len() == 0 {
		t.Fatal("expected the registry to hold the opened device")
	}
	before := defaultRegistry.Len()
	Free(w)
	if w.device != nil {
		t.Error("expected Free to clear the worker's device reference")
	}
	if got := defaultRegistry.Len(); got != before-1 {
		t.Errorf("expected Free to drop the registry entry, Len() = %d (was %d)", got, before)
	}
}
