package store

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/machine"
	"github.com/rzubek/botl/term"
)

// Table is a predicate whose extension is a row set rather than a clause
// list. Rows are stored as plain slices of cell.Value so the
// native row-matcher can unify against them directly.
type Table struct {
	Indicator term.Indicator
	Rows      [][]cell.Value
}

// DefineTable creates a table predicate for pi, flagged IsSpecial+IsTable,
// whose native callback unifies the caller's argument window with the first
// row that matches it (tableTryRows). The call leaves no choice point and
// keeps no cursor: rows after the first match are not tried on
// backtracking.
func (s *Store) DefineTable(pi term.Indicator) *Table {
	t := &Table{Indicator: pi}
	rowMatch := func(m *machine.Machine, base cell.Addr, arity int) (bool, error) {
		return tableTryRows(m, t, base, arity)
	}
	p := s.DefinePrimop(pi, rowMatch)
	p.IsTable = true
	s.tables[pi] = t
	return t
}

// tableTryRows attempts to unify the caller's argument window against
// every row until one succeeds, mirroring the linear clause-trial
// discipline used for ordinary predicates but over row data instead of
// compiled clauses.
func tableTryRows(m *machine.Machine, t *Table, base cell.Addr, arity int) (bool, error) {
	for _, row := range t.Rows {
		if len(row) != arity {
			continue
		}
		mark := m.TrailMark()
		ok := true
		for i, v := range row {
			if !m.UnifyConstAt(base+cell.Addr(i), v) {
				ok = false
				break
			}
		}
		if ok {
			return true, nil
		}
		m.UndoTo(mark)
	}
	return false, nil
}

// TableFor returns the row store for an already-declared table, or nil.
func (s *Store) TableFor(pi term.Indicator) *Table { return s.tables[pi] }

// AssertRow appends a fact directly to t's row set: a ground fact whose
// predicate is a table is asserted directly into the table instead of
// being compiled as a clause.
func (t *Table) AssertRow(row []cell.Value) {
	t.Rows = append(t.Rows, row)
}

// LoadTable populates (creating if absent) the table named by pi from a
// comma-separated file: the first row is a header that determines arity; a row
// whose width disagrees with the header is padded with Null or truncated
// to fit rather than rejected.
//
// grounded on launix-de-memcp's storage/csv.go line-scanning loader,
// adapted from that package's scm.Scmer row map to this module's
// cell.Value row slices, and from a raw bufio.Scanner to
// encoding/csv.Reader for proper quoting.
func (s *Store) LoadTable(pi term.Indicator, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1 // tolerate ragged rows; see width handling below

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("store: reading CSV header of %s: %w", path, err)
	}
	arity := len(header)
	t := s.tables[pi]
	if t == nil {
		if pi.Arity != arity {
			pi = term.NewIndicator(pi.Name.Name(), arity)
		}
		t = s.DefineTable(pi)
	}

	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		row := make([]cell.Value, arity)
		for i := range row {
			if i < len(rec) {
				row[i] = parseCSVCell(rec[i])
			} else {
				row[i] = cell.SetReference(term.Null{})
			}
		}
		t.AssertRow(row)
	}
	return nil
}

// parseCSVCell decodes one CSV field into a cell.Value: numeric fields
// become Int or Float, everything else a Ref-wrapped string.
func parseCSVCell(s string) cell.Value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return cell.SetInt(i)
	}
	if f, err := strconv.ParseFloat(s, 32); err == nil {
		return cell.SetFloat(float32(f))
	}
	return cell.SetReference(s)
}
