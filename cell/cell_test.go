package cell_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rzubek/botl/cell"
)

func TestValue_AsFloat(t *testing.T) {
	tests := []struct {
		name string
		v    cell.Value
		want float32
	}{
		{"int", cell.SetInt(3), 3},
		{"float", cell.SetFloat(2.5), 2.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.AsFloat(); got != tc.want {
				t.Errorf("AsFloat() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValue_AsFloat_PanicsOnNonNumeric(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on non-numeric AsFloat")
		}
	}()
	cell.SetBool(true).AsFloat()
}

func TestStack_BindAndUndo(t *testing.T) {
	s := cell.NewStack(4)
	base := s.Grow(2)
	mark := s.TrailMark()

	s.Bind(base, cell.SetInt(42))
	if got := s.Get(base); got.Tag != cell.Int || got.I != 42 {
		t.Fatalf("Get(base) = %+v, want Int 42", got)
	}

	s.UndoTo(mark)
	if got := s.Get(base); !got.IsUnbound() {
		t.Errorf("Get(base) after UndoTo = %+v, want unbound", got)
	}
}

func TestStack_Deref(t *testing.T) {
	s := cell.NewStack(4)
	base := s.Grow(3)
	// base+2 is the terminal cell, base+1 points to it, base points to base+1.
	s.Set(base+2, cell.SetInt(7))
	s.Set(base+1, cell.SetStackRef(base+2))
	s.Set(base, cell.SetStackRef(base+1))

	if got := s.Deref(base); got != base+2 {
		t.Errorf("Deref(base) = %v, want %v", got, base+2)
	}
	want := cell.SetInt(7)
	if diff := cmp.Diff(want, s.DerefValue(base)); diff != "" {
		t.Errorf("DerefValue(base) mismatch (-want +got):\n%s", diff)
	}
}

func TestStack_TruncateTo(t *testing.T) {
	s := cell.NewStack(4)
	base := s.Grow(3)
	s.TruncateTo(base + 1)
	if got := s.Top(); got != base+1 {
		t.Errorf("Top() = %v, want %v", got, base+1)
	}
}
