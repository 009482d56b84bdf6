package drag

// TrackLocator resolves the track under a vertical pointer position.
type TrackLocator interface {
	TrackAt(y float64) (trackID string, ok bool)
}

// Row is one track lane in view coordinates. Top is inclusive, Bottom
// exclusive.
type Row struct {
	TrackID string  `json:"trackId"`
	Top     float64 `json:"top"`
	Bottom  float64 `json:"bottom"`
}

// RowLayout is the stock TrackLocator: the rendered track rows as reported
// by the front-end.
type RowLayout []Row

func (l RowLayout) TrackAt(y float64) (string, bool) {
	for _, r := range l {
		if y >= r.Top && y < r.Bottom {
			return r.TrackID, true
		}
	}
	return "", false
}

// UniformRows lays out trackIDs top to bottom with equal row height.
func UniformRows(trackIDs []string, top, height float64) RowLayout {
	out := make(RowLayout, len(trackIDs))
	for i, id := range trackIDs {
		y := top + float64(i)*height
		out[i] = Row{TrackID: id, Top: y, Bottom: y + height}
	}
	return out
}
