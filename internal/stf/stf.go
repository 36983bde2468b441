// Package stf implements the SubTimeFrame data model: an ordered
// collection of HBF payloads produced by one Builder for one time-frame
// id, keyed by (dataOrigin, subSpecification).
package stf

// EquipmentID identifies one (dataOrigin, subSpecification) stream within
// an STF.
type EquipmentID struct {
	DataOrigin       string
	SubSpecification uint32
}

// HBF is one Heartbeat Frame payload: the atomic unit carried by a
// readout message part, tagged with the RDH fields used to route it.
type HBF struct {
	Equipment EquipmentID
	Data      []byte
}

// Header carries STF identity and bookkeeping fields.
type Header struct {
	ID     uint64
	Origin Origin
	// Size is computed from the HBF payloads currently held; it is kept
	// in the header (rather than recomputed on every read) because the
	// Builder's rolling STF-size mean and the direct serialiser both
	// read it.
	Size uint64
}

// STF is an immutable-once-sealed collection of HBFs for one time-frame
// id. Builders populate an STF while Assembling; once handed to the
// Sequencer it must not be mutated further (invariant iii of the data
// model).
type STF struct {
	Header Header
	// streams preserves insertion order per equipment id, and HBF order
	// within a stream exactly as received (§5 ordering guarantee).
	streams map[EquipmentID][]HBF
	order   []EquipmentID
	sealed  bool
}

// New creates an empty, open STF for the given time-frame id and origin.
func New(id uint64, origin Origin) *STF {
	return &STF{
		Header:  Header{ID: id, Origin: origin},
		streams: make(map[EquipmentID][]HBF),
	}
}

// AddHBFs appends a contiguous run of HBFs for one equipment id in bulk.
// It panics if called on a sealed STF. No time-frame id is carried on
// an HBF, so no id check is made.
func (s *STF) AddHBFs(eq EquipmentID, hbfs []HBF) {
	if s.sealed {
		panic("stf: AddHBFs on sealed STF")
	}
	if len(hbfs) == 0 {
		return
	}

	if _, exists := s.streams[eq]; !exists {
		s.order = append(s.order, eq)
	}
	s.streams[eq] = append(s.streams[eq], hbfs...)

	for _, h := range hbfs {
		s.Header.Size += uint64(len(h.Data))
	}
}

// Seal marks the STF immutable. Further AddHBFs calls panic.
func (s *STF) Seal() {
	s.sealed = true
}

// Sealed reports whether Seal has been called.
func (s *STF) Sealed() bool {
	return s.sealed
}

// Equipment returns the set of equipment ids present in the STF, in
// first-seen order.
func (s *STF) Equipment() []EquipmentID {
	out := make([]EquipmentID, len(s.order))
	copy(out, s.order)
	return out
}

// HBFs returns the HBF slice for one equipment id, or nil if absent.
// Callers must not mutate the returned slice.
func (s *STF) HBFs(eq EquipmentID) []HBF {
	return s.streams[eq]
}

// HBFCount returns the total number of HBF payloads held across all
// equipment ids — used to verify the "sum of HBFs added equals accepted
// input parts" invariant in tests.
func (s *STF) HBFCount() int {
	n := 0
	for _, hbfs := range s.streams {
		n += len(hbfs)
	}
	return n
}
