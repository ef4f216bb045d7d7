package values

import (
	"math/rand"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/rmarinbe/argsfuzz/internal/models"
)

func newTestGenerator(seed int64) *Generator {
	return NewGenerator(rand.New(rand.NewSource(seed)), NewRegistry(), NewCachedLister())
}

// TestGenerateFlag verifies flag kinds produce no value
func TestGenerateFlag(t *testing.T) {
	g := newTestGenerator(1)
	spec := &models.ValueSpec{Kind: models.KindFlag}

	value, hasValue, err := g.Generate(spec, "verbose")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if hasValue || value != "" {
		t.Errorf("flag produced value %q (hasValue=%v)", value, hasValue)
	}
}

// TestGenerateIntegerBounds verifies integers stay within [Min, Max]
func TestGenerateIntegerBounds(t *testing.T) {
	g := newTestGenerator(2)
	spec := &models.ValueSpec{Kind: models.KindInteger, Min: -5, Max: 17}

	for i := 0; i < 500; i++ {
		value, hasValue, err := g.Generate(spec, "depth")
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if !hasValue {
			t.Fatal("integer produced no value")
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			t.Fatalf("non-integer value %q", value)
		}
		if n < -5 || n > 17 {
			t.Errorf("value %d outside [-5, 17]", n)
		}
	}
}

// TestGenerateIntegerOptional verifies both the bare and valued forms occur
func TestGenerateIntegerOptional(t *testing.T) {
	g := newTestGenerator(3)
	spec := &models.ValueSpec{Kind: models.KindIntegerOptional, Min: 0, Max: 9}

	bare, valued := 0, 0
	for i := 0; i < 1000; i++ {
		value, hasValue, err := g.Generate(spec, "level")
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if hasValue {
			valued++
			if n, err := strconv.Atoi(value); err != nil || n < 0 || n > 9 {
				t.Fatalf("bad optional integer %q", value)
			}
		} else {
			bare++
		}
	}
	if bare == 0 {
		t.Error("bare form never drawn across 1000 generations")
	}
	if valued < bare {
		t.Errorf("valued form should dominate: bare=%d valued=%d", bare, valued)
	}
}

// TestGenerateFloat verifies two-decimal formatting within bounds
func TestGenerateFloat(t *testing.T) {
	g := newTestGenerator(4)
	spec := &models.ValueSpec{Kind: models.KindFloat, Min: 0.5, Max: 2.5}

	for i := 0; i < 100; i++ {
		value, _, err := g.Generate(spec, "rate")
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			t.Fatalf("non-float value %q", value)
		}
		if f < 0.5 || f > 2.5 {
			t.Errorf("value %v outside [0.5, 2.5]", f)
		}
		dot := strings.IndexByte(value, '.')
		if dot < 0 || len(value)-dot-1 != 2 {
			t.Errorf("value %q not formatted to two decimals", value)
		}
	}
}

// TestGenerateEnum verifies values come from the declared set
func TestGenerateEnum(t *testing.T) {
	g := newTestGenerator(5)
	spec := &models.ValueSpec{Kind: models.KindEnum, Values: []string{"fast", "slow", "auto"}}

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		value, _, err := g.Generate(spec, "mode")
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		switch value {
		case "fast", "slow", "auto":
			seen[value] = true
		default:
			t.Fatalf("value %q outside enum set", value)
		}
	}
	if len(seen) != 3 {
		t.Errorf("only %d of 3 enum values seen", len(seen))
	}
}

// TestGenerateListFinite verifies sampling without replacement and separator use
func TestGenerateListFinite(t *testing.T) {
	g := newTestGenerator(6)
	spec := &models.ValueSpec{
		Kind:      models.KindList,
		Values:    []string{"tcp", "udp", "icmp", "sctp"},
		Separator: ";",
		MinCount:  2,
		MaxCount:  3,
		Format:    models.FormatPlain,
	}

	for i := 0; i < 100; i++ {
		value, _, err := g.Generate(spec, "protos")
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		items := strings.Split(value, ";")
		if len(items) < 2 || len(items) > 3 {
			t.Fatalf("%d items in %q, want 2..3", len(items), value)
		}
		dup := make(map[string]bool)
		for _, item := range items {
			switch item {
			case "tcp", "udp", "icmp", "sctp":
			default:
				t.Fatalf("unknown item %q", item)
			}
			if dup[item] {
				t.Fatalf("duplicate item %q in %q", item, value)
			}
			dup[item] = true
		}
	}
}

// TestGenerateListCSVRange verifies numeric lists render as compressed ranges
func TestGenerateListCSVRange(t *testing.T) {
	g := newTestGenerator(7)
	spec := &models.ValueSpec{
		Kind:      models.KindList,
		Min:       1,
		Max:       50,
		Separator: ",",
		MinCount:  3,
		MaxCount:  8,
		Format:    models.FormatCSVRange,
	}

	for i := 0; i < 100; i++ {
		value, _, err := g.Generate(spec, "ports")
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		nums, err := DecompressRanges(value)
		if err != nil {
			t.Fatalf("DecompressRanges(%q) error = %v", value, err)
		}
		for _, n := range nums {
			if n < 1 || n > 50 {
				t.Errorf("member %d of %q outside [1, 50]", n, value)
			}
		}
	}
}

// TestGenerateStringPattern verifies pattern-shaped strings match their pattern
func TestGenerateStringPattern(t *testing.T) {
	g := newTestGenerator(8)
	spec := &models.ValueSpec{Kind: models.KindString, Pattern: `[a-z]{3}-[0-9]{2}`}

	for i := 0; i < 50; i++ {
		value, _, err := g.Generate(spec, "tag")
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(value) != 6 || value[3] != '-' {
			t.Errorf("value %q does not fit [a-z]{3}-[0-9]{2}", value)
		}
	}
	if g.Fallbacks != 0 {
		t.Errorf("Fallbacks = %d, want 0 for supported pattern", g.Fallbacks)
	}
}

// TestGenerateStringNoPattern verifies the default value_NNN shape
func TestGenerateStringNoPattern(t *testing.T) {
	g := newTestGenerator(9)
	spec := &models.ValueSpec{Kind: models.KindString}

	value, _, err := g.Generate(spec, "name")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.HasPrefix(value, "value_") {
		t.Errorf("value %q, want value_NNN shape", value)
	}
}

// TestGenerateCustomUnregistered verifies unregistered generators are fatal
func TestGenerateCustomUnregistered(t *testing.T) {
	g := newTestGenerator(10)
	spec := &models.ValueSpec{Kind: models.KindCustom, Generator: "nonexistent"}

	_, _, err := g.Generate(spec, "token")
	if err == nil {
		t.Fatal("Generate() error = nil for unregistered generator")
	}
	if !strings.Contains(err.Error(), "unregistered generator") {
		t.Errorf("error = %v", err)
	}
}

// TestCompressRanges covers the run-collapsing rules
func TestCompressRanges(t *testing.T) {
	tests := []struct {
		name string
		nums []int
		want string
	}{
		{"empty", nil, ""},
		{"single", []int{7}, "7"},
		{"pair stays enumerated", []int{3, 4}, "3,4"},
		{"triple collapses", []int{1, 2, 3}, "1-3"},
		{"full run", []int{1, 2, 3, 4, 5}, "1-5"},
		{"two runs", []int{1, 2, 3, 5, 6, 7}, "1-3,5-7"},
		{"mixed runs and singles", []int{1, 2, 3, 5, 9, 10}, "1-3,5,9,10"},
		{"unsorted with duplicates", []int{5, 1, 3, 2, 5, 4}, "1-5"},
		{"negative run", []int{-3, -2, -1}, "-3--1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompressRanges(tt.nums); got != tt.want {
				t.Errorf("CompressRanges(%v) = %q, want %q", tt.nums, got, tt.want)
			}
		})
	}
}

// TestDecompressRanges covers expansion and error cases
func TestDecompressRanges(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []int
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single", "7", []int{7}, false},
		{"range", "1-4", []int{1, 2, 3, 4}, false},
		{"mixed", "1-3,5,9,10", []int{1, 2, 3, 5, 9, 10}, false},
		{"negative singleton", "-5", []int{-5}, false},
		{"negative range", "-3--1", []int{-3, -2, -1}, false},
		{"inverted range", "9-3", nil, true},
		{"garbage", "a-b", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecompressRanges(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecompressRanges(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecompressRanges(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestCompressDecompressRoundTrip verifies the pair inverts cleanly
func TestCompressDecompressRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(20)
		set := make(map[int]bool)
		for i := 0; i < n; i++ {
			set[rng.Intn(100)] = true
		}
		var nums []int
		for v := range set {
			nums = append(nums, v)
		}

		got, err := DecompressRanges(CompressRanges(nums))
		if err != nil {
			t.Fatalf("round trip error = %v", err)
		}
		if len(got) != len(set) {
			t.Fatalf("round trip lost members: %v -> %v", nums, got)
		}
		for _, v := range got {
			if !set[v] {
				t.Fatalf("round trip invented member %d", v)
			}
		}
	}
}
