package keyset

import "testing"

func TestSet_AddAndHas(t *testing.T) {
	tests := []struct {
		name      string
		add       []string
		wantLen   int
		has       []string
		hasNot    []string
		wantAdded int
	}{
		{
			name:      "distinct values",
			add:       []string{"C1", "C2", "C3"},
			wantLen:   3,
			has:       []string{"C1", "C2", "C3"},
			wantAdded: 3,
		},
		{
			name:      "duplicates collapse",
			add:       []string{"C1", "C1", "C1"},
			wantLen:   1,
			has:       []string{"C1"},
			wantAdded: 1,
		},
		{
			name:      "empty values are ignored",
			add:       []string{"", "C1", ""},
			wantLen:   1,
			has:       []string{"C1"},
			hasNot:    []string{""},
			wantAdded: 1,
		},
		{
			name:      "membership is literal",
			add:       []string{"\"C1\""},
			wantLen:   1,
			has:       []string{"\"C1\""},
			hasNot:    []string{"C1", " \"C1\"", "\"c1\""},
			wantAdded: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			added := s.AddAll(tt.add)
			if added != tt.wantAdded {
				t.Errorf("AddAll() = %d, expected %d", added, tt.wantAdded)
			}
			if s.Len() != tt.wantLen {
				t.Errorf("Len() = %d, expected %d", s.Len(), tt.wantLen)
			}
			for _, v := range tt.has {
				if !s.Has(v) {
					t.Errorf("expected Has(%q) to be true", v)
				}
			}
			for _, v := range tt.hasNot {
				if s.Has(v) {
					t.Errorf("expected Has(%q) to be false", v)
				}
			}
		})
	}
}

func TestSet_MergeOnlyGrows(t *testing.T) {
	s := New()
	s.AddAll([]string{"C1", "C2"})

	other := New()
	other.AddAll([]string{"C2", "C3"})

	added := s.Merge(other)
	if added != 1 {
		t.Errorf("Merge() = %d, expected 1", added)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, expected 3", s.Len())
	}
	for _, v := range []string{"C1", "C2", "C3"} {
		if !s.Has(v) {
			t.Errorf("expected Has(%q) to be true after merge", v)
		}
	}

	if added := s.Merge(nil); added != 0 {
		t.Errorf("Merge(nil) = %d, expected 0", added)
	}
}

func TestSet_ValuesSorted(t *testing.T) {
	s := New()
	s.AddAll([]string{"b", "a", "c"})

	got := s.Values()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Values() = %v, expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Values()[%d] = %q, expected %q", i, got[i], want[i])
		}
	}
}
