package subset

import (
	"reflect"
	"testing"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

func TestGenerate_Order(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  [][]string
	}{
		{
			name:  "two items",
			items: []string{"a", "b"},
			want:  [][]string{{"b"}, {"a"}, {"a", "b"}},
		},
		{
			name:  "three items",
			items: []string{"a", "b", "c"},
			want: [][]string{
				{"c"}, {"b"}, {"b", "c"}, {"a"}, {"a", "c"}, {"a", "b"}, {"a", "b", "c"},
			},
		},
		{
			name:  "single item",
			items: []string{"x"},
			want:  [][]string{{"x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.items)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Generate(%v) = %v, want %v", tt.items, got, tt.want)
			}
		})
	}
}

func TestGenerate_Empty(t *testing.T) {
	got, err := Generate([]int{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Generate(empty) returned %d subsets", len(got))
	}
}

func TestGenerate_Count(t *testing.T) {
	for n := 1; n <= 10; n++ {
		items := make([]int, n)
		got, err := Generate(items)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if want := (1 << uint(n)) - 1; len(got) != want {
			t.Errorf("n=%d: got %d subsets, want %d", n, len(got), want)
		}
	}
}

func TestGenerateWithSize(t *testing.T) {
	items := []int{10, 20, 30, 40, 50}
	for k := 1; k <= len(items); k++ {
		got, err := GenerateWithSize(items, k)
		if err != nil {
			t.Fatalf("k=%d: unexpected error: %v", k, err)
		}
		if want := combin.Binomial(len(items), k); len(got) != want {
			t.Errorf("k=%d: got %d subsets, want C(5,%d)=%d", k, len(got), k, want)
		}
		for _, s := range got {
			if len(s) != k {
				t.Errorf("k=%d: subset %v has size %d", k, s, len(s))
			}
		}
	}
}

func TestGenerateWithSize_EdgeCases(t *testing.T) {
	items := []int{1, 2, 3}

	tests := []struct {
		name    string
		k       int
		wantLen int
		wantErr bool
	}{
		{"zero", 0, 0, false},
		{"too large", 4, 0, false},
		{"negative", -1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateWithSize(items, tt.k)
			if tt.wantErr {
				if !errors.IsKind(err, errors.KindInvalidArgument) {
					t.Fatalf("err = %v, want InvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestIndicesAndMasksAgree(t *testing.T) {
	masks, err := Masks(3)
	if err != nil {
		t.Fatal(err)
	}
	indices, err := Indices(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(masks) != len(indices) {
		t.Fatalf("len(masks)=%d, len(indices)=%d", len(masks), len(indices))
	}
	if !reflect.DeepEqual(indices[0], []int{2}) || !reflect.DeepEqual(indices[6], []int{0, 1, 2}) {
		t.Errorf("indices = %v", indices)
	}
	for s := range masks {
		var from []int
		for i, in := range masks[s] {
			if in {
				from = append(from, i)
			}
		}
		if !reflect.DeepEqual(from, indices[s]) {
			t.Errorf("subset %d: mask %v disagrees with indices %v", s, masks[s], indices[s])
		}
	}
}

func TestTooManyItems(t *testing.T) {
	_, err := Indices(MaxItems + 1)
	if !errors.IsKind(err, errors.KindInvalidArgument) {
		t.Errorf("err = %v, want InvalidArgument", err)
	}
}

func TestDeterministic(t *testing.T) {
	a, _ := Generate([]string{"x", "y", "z", "w"})
	b, _ := Generate([]string{"x", "y", "z", "w"})
	if !reflect.DeepEqual(a, b) {
		t.Error("Generate is not deterministic")
	}
}
