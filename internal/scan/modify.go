package scan

import "samfdw/internal/cell"

// The dataset is read-only. BeginModify refuses; the remaining calls accept
// and ignore their input so hosts that probe the whole life-cycle keep going.

// BeginModify always returns ErrReadOnly.
func (s *Session) BeginModify() error { return ErrReadOnly }

// Insert is a no-op.
func (s *Session) Insert(cell.Row) error { return nil }

// Update is a no-op.
func (s *Session) Update(rowID cell.Cell, row cell.Row) error { return nil }

// Delete is a no-op.
func (s *Session) Delete(rowID cell.Cell) error { return nil }

// EndModify is a no-op.
func (s *Session) EndModify() error { return nil }
