package ticket

// Store holds the current ticket snapshot. Readers only ever see a full,
// consistent snapshot; mutations go through the pure operations and are
// loaded back wholesale.
type Store struct {
	current Ticket
	loaded  bool
}

// Load replaces the snapshot. A ticket without a line array is how the
// order service reports an unknown voucher; it is never stored.
func (s *Store) Load(t Ticket) error {
	if t.Lines == nil {
		return ErrNoLines
	}
	s.current = t.clone()
	s.loaded = true
	return nil
}

// Snapshot returns a deep copy of the held ticket.
func (s *Store) Snapshot() (Ticket, bool) {
	if !s.loaded {
		return Ticket{}, false
	}
	return s.current.clone(), true
}

// Clear drops the snapshot after a failed fetch.
func (s *Store) Clear() {
	s.current = Ticket{}
	s.loaded = false
}
