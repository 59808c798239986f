package schedule

// OverlayResolver collapses every record sharing a TUID into a set of
// pairwise non-overlapping records, applying CIF's STP priority:
// Cancellation and New both beat Overlay, which beats Permanent. It is
// generic over OverlayRecord so the exact same pass serves both
// Schedule records and Association records — "one algorithm, two
// element types", expressed here with a Go type parameter rather than a
// runtime type switch.
type OverlayResolver[T OverlayRecord] struct{}

// NewOverlayResolver constructs a resolver for element type T.
func NewOverlayResolver[T OverlayRecord]() *OverlayResolver[T] {
	return &OverlayResolver[T]{}
}

// Resolve requires records to already come pre-sorted so that every
// TUID's Permanent record precedes its Overlay/New/Cancellation
// records (the caller's SQL ordering of `stp_indicator DESC, id`
// guarantees this, giving Overlay, then New, then Cancellation, each in
// id order). It does a single
// pass: a non-Permanent record carves its calendar out of every base
// already indexed for its TUID, and is itself indexed afterwards unless
// it is a Cancellation, which only ever removes dates and never
// survives into the output.
func (r *OverlayResolver[T]) Resolve(records []T) []T {
	index := make(map[string][]T)
	var order []string
	seen := make(map[string]bool)

	for _, rec := range records {
		tuid := rec.RecordTUID()
		if !seen[tuid] {
			seen[tuid] = true
			order = append(order, tuid)
		}

		if rec.RecordSTP() != STPPermanent {
			base := index[tuid]
			kept := base[:0]
			for _, b := range base {
				if rec.RecordCalendar().Overlap(b.RecordCalendar()) == OverlapNone {
					kept = append(kept, b)
					continue
				}
				narrowed := b.RecordCalendar().AddExcludeDays(rec.RecordCalendar())
				if narrowed == nil {
					continue
				}
				cloned, ok := b.CloneRecord(narrowed).(T)
				if !ok {
					continue
				}
				kept = append(kept, cloned)
			}
			index[tuid] = kept
		}

		if rec.RecordSTP() != STPCancellation {
			index[tuid] = append(index[tuid], rec)
		}
	}

	out := make([]T, 0, len(records))
	for _, tuid := range order {
		out = append(out, index[tuid]...)
	}
	return out
}
