package layout

import "testing"

func TestRing_Index(t *testing.T) {
	tests := []struct {
		name string
		ring Ring
		in   []int
		want []int
	}{
		{"identity", Ring{Count: 4}, []int{0, 1, 2, 3}, []int{0, 1, 2, 3}},
		{"offset", Ring{Count: 4, Offset: 1}, []int{0, 1, 2, 3}, []int{1, 2, 3, 0}},
		{"reverse", Ring{Count: 4, Reverse: true}, []int{0, 1, 2, 3}, []int{0, 3, 2, 1}},
		{"reverse offset", Ring{Count: 4, Offset: 2, Reverse: true}, []int{0, 1, 2, 3}, []int{2, 1, 0, 3}},
		{"negative offset", Ring{Count: 5, Offset: -1}, []int{0, 1}, []int{4, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, i := range tt.in {
				if got := tt.ring.Index(i); got != tt.want[k] {
					t.Errorf("Index(%d) = %d, want %d", i, got, tt.want[k])
				}
			}
		})
	}
}

func TestRing_IndexIsPermutation(t *testing.T) {
	r := Ring{Count: 68, Offset: 17, Reverse: true}
	seen := make([]bool, r.Count)
	for i := 0; i < r.Count; i++ {
		j := r.Index(i)
		if j < 0 || j >= r.Count || seen[j] {
			t.Fatalf("Index(%d) = %d is out of range or repeated", i, j)
		}
		seen[j] = true
	}
}

func TestRing_Identity(t *testing.T) {
	if !(Ring{Count: 8}).Identity() || !(Ring{Count: 8, Offset: 16}).Identity() {
		t.Error("plain ring should be identity")
	}
	if (Ring{Count: 8, Offset: 3}).Identity() || (Ring{Count: 8, Reverse: true}).Identity() {
		t.Error("offset or reversed ring is not identity")
	}
}
