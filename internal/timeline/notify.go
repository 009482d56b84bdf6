package timeline

import "sort"

type ChangeKind int

const (
	ChangeTracks ChangeKind = iota
	ChangeClips
	ChangeSelection
	ChangeClipboard
	ChangeRestore
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeTracks:
		return "tracks"
	case ChangeClips:
		return "clips"
	case ChangeSelection:
		return "selection"
	case ChangeClipboard:
		return "clipboard"
	case ChangeRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// Change describes one store mutation. Observers receive it after the
// store is back in a consistent state.
type Change struct {
	Kind    ChangeKind
	TrackID string
	ClipIDs []string
}

type Observer func(Change)

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(o Observer) func() {
	if s.observers == nil {
		s.observers = make(map[uint64]Observer)
	}
	s.nextObserver++
	id := s.nextObserver
	s.observers[id] = o
	return func() {
		delete(s.observers, id)
	}
}

func (s *Store) emit(c Change) {
	if len(s.observers) == 0 {
		return
	}
	ids := make([]uint64, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if o, ok := s.observers[id]; ok {
			o(c)
		}
	}
}
