package timeline

import (
	"errors"
	"reflect"
	"testing"
)

func TestPasteClips_SkipsPastOverlaps(t *testing.T) {
	s, track := newTestStore(t)
	a := mustAdd(t, s, track.ID, mediaClip(0, 0, 5, 1))
	mustAdd(t, s, track.ID, mediaClip(6, 0, 4, 1))

	if !s.CopyClips(a.ID) {
		t.Fatal("CopyClips() = false")
	}
	pasted, err := s.PasteClips(track.ID, 2)
	if err != nil {
		t.Fatalf("PasteClips() error = %v", err)
	}
	if len(pasted) != 1 {
		t.Fatalf("pasted %d clips, want 1", len(pasted))
	}
	p := pasted[0]
	if p.StartTime != 10 || p.EndTime != 15 {
		t.Fatalf("pasted span = [%v,%v], want [10,15]", p.StartTime, p.EndTime)
	}
	if p.ID == a.ID || p.Selected {
		t.Fatalf("pasted clip id=%s selected=%v", p.ID, p.Selected)
	}
	assertNoOverlap(t, track)
}

func TestPasteClips_PreservesSpacing(t *testing.T) {
	s, src := newTestStore(t)
	dst := s.AddTrack(TrackVideo, "")
	a := mustAdd(t, s, src.ID, mediaClip(0, 0, 5, 1))
	b := mustAdd(t, s, src.ID, mediaClip(6, 0, 4, 1))
	s.SelectClip(a.ID, false)
	s.SelectClip(b.ID, true)

	if !s.CopyClips() {
		t.Fatal("CopyClips() from selection = false")
	}
	pasted, err := s.PasteClips(dst.ID, 3)
	if err != nil {
		t.Fatalf("PasteClips() error = %v", err)
	}

	want := [][2]float64{{3, 8}, {9, 13}}
	for i, p := range pasted {
		if got := [2]float64{p.StartTime, p.EndTime}; got != want[i] {
			t.Errorf("pasted[%d] = %v, want %v", i, got, want[i])
		}
		if p.TrackID != dst.ID {
			t.Errorf("pasted[%d].TrackID = %s, want %s", i, p.TrackID, dst.ID)
		}
	}
	if len(s.SelectedClipIDs()) != 2 {
		t.Errorf("paste changed the selection: %v", s.SelectedClipIDs())
	}

	again, err := s.PasteClips(dst.ID, 0)
	if err != nil {
		t.Fatalf("second PasteClips() error = %v", err)
	}
	if again[0].ID == pasted[0].ID {
		t.Error("second paste reused clip ids")
	}
	assertNoOverlap(t, dst)
}

func TestPasteClips_Cut(t *testing.T) {
	s, src := newTestStore(t)
	dst := s.AddTrack(TrackVideo, "")
	a := mustAdd(t, s, src.ID, mediaClip(0, 0, 5, 1))

	if !s.CutClips(a.ID) {
		t.Fatal("CutClips() = false")
	}
	if s.Clip(a.ID) == nil {
		t.Fatal("cut removed the clip before paste")
	}
	if _, err := s.PasteClips(dst.ID, 0); err != nil {
		t.Fatalf("PasteClips() error = %v", err)
	}
	if s.Clip(a.ID) != nil {
		t.Error("cut original still present after paste")
	}
	if s.Clipboard() != nil {
		t.Error("clipboard not cleared after cut paste")
	}
	if len(dst.Clips) != 1 {
		t.Fatalf("destination holds %d clips, want 1", len(dst.Clips))
	}
}

func TestPasteClips_EmptyClipboardIsNoop(t *testing.T) {
	s, track := newTestStore(t)
	mustAdd(t, s, track.ID, mediaClip(0, 0, 5, 1))
	before := s.Snapshot()

	pasted, err := s.PasteClips(track.ID, 0)
	if !errors.Is(err, ErrClipboardEmpty) {
		t.Fatalf("PasteClips() error = %v, want ErrClipboardEmpty", err)
	}
	if pasted != nil {
		t.Fatalf("PasteClips() = %v, want nil", pasted)
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Fatal("failed paste changed the store")
	}
}

func TestPasteClips_MissingTrack(t *testing.T) {
	s, track := newTestStore(t)
	a := mustAdd(t, s, track.ID, mediaClip(0, 0, 5, 1))
	s.CopyClips(a.ID)

	if _, err := s.PasteClips("missing", 0); !errors.Is(err, ErrTrackNotFound) {
		t.Fatalf("PasteClips() error = %v, want ErrTrackNotFound", err)
	}
}

func TestCopyClips_Empty(t *testing.T) {
	s, _ := newTestStore(t)
	if s.CopyClips() {
		t.Error("CopyClips() with no selection should return false")
	}
	if s.CutClips("missing") {
		t.Error("CutClips() with unknown ids should return false")
	}
	if s.Clipboard() != nil {
		t.Error("clipboard set by a failed copy")
	}
}

func TestCopyClips_DeepCopies(t *testing.T) {
	s, track := newTestStore(t)
	a := mustAdd(t, s, track.ID, mediaClip(0, 0, 5, 1))
	s.CopyClips(a.ID)

	s.UpdateClip(a.ID, Times(20, 25))
	if got := s.Clipboard().Clips[0]; got.StartTime != 0 {
		t.Fatalf("clipboard copy followed the original: start=%v", got.StartTime)
	}
}
