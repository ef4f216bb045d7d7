package values

import (
	"math/rand"
	"net"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// TestRegistryBuiltins verifies the shipped generators are pre-registered
func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"ip_address", "port_range", "mac_address", "hex_string", "uuid"} {
		if _, ok := r.Lookup(name); !ok {
			t.Errorf("builtin %q not registered", name)
		}
	}
	if _, ok := r.Lookup("nope"); ok {
		t.Error("Lookup(nope) = true")
	}
}

// TestRegistryRegister verifies custom registration and rejection of bad input
func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	err := r.Register("token", func(rng *rand.Rand, _ map[string]any) (string, error) {
		return "tok", nil
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, ok := r.Lookup("token"); !ok {
		t.Error("registered generator not found")
	}

	if err := r.Register("", nil); err == nil {
		t.Error("Register with empty name accepted")
	}
	if err := r.Register("nilfn", nil); err == nil {
		t.Error("Register with nil function accepted")
	}
}

// TestGenIPAddress verifies parseable addresses and private-only filtering
func TestGenIPAddress(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		ip, err := genIPAddress(rng, nil)
		if err != nil {
			t.Fatalf("genIPAddress() error = %v", err)
		}
		if net.ParseIP(ip) == nil {
			t.Fatalf("unparseable address %q", ip)
		}
	}

	params := map[string]any{"private_only": true, "include_localhost": false}
	for i := 0; i < 200; i++ {
		ip, err := genIPAddress(rng, params)
		if err != nil {
			t.Fatalf("genIPAddress(private) error = %v", err)
		}
		parsed := net.ParseIP(ip)
		if parsed == nil || !parsed.IsPrivate() {
			t.Fatalf("address %q is not private", ip)
		}
	}
}

// TestGenPortRange verifies bounds and the single-port vs range forms
func TestGenPortRange(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	params := map[string]any{"min_port": 1000, "max_port": 2000}

	singles, ranges := 0, 0
	for i := 0; i < 500; i++ {
		v, err := genPortRange(rng, params)
		if err != nil {
			t.Fatalf("genPortRange() error = %v", err)
		}
		parts := strings.Split(v, "-")
		switch len(parts) {
		case 1:
			singles++
		case 2:
			ranges++
		default:
			t.Fatalf("bad port value %q", v)
		}
		prev := 999
		for _, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil || n < 1000 || n > 2000 {
				t.Fatalf("port %q outside [1000, 2000]", p)
			}
			if n <= prev && len(parts) == 2 {
				t.Fatalf("range %q not ascending", v)
			}
			prev = n
		}
	}
	if singles == 0 || ranges == 0 {
		t.Errorf("singles=%d ranges=%d, want both forms", singles, ranges)
	}

	if _, err := genPortRange(rng, map[string]any{"min_port": 9, "max_port": 1}); err == nil {
		t.Error("inverted port bounds accepted")
	}
}

// TestGenMACAddress verifies the colon-separated hex format
func TestGenMACAddress(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	macRe := regexp.MustCompile(`^([0-9a-f]{2}:){5}[0-9a-f]{2}$`)

	for i := 0; i < 100; i++ {
		mac, err := genMACAddress(rng, nil)
		if err != nil {
			t.Fatalf("genMACAddress() error = %v", err)
		}
		if !macRe.MatchString(mac) {
			t.Errorf("bad MAC %q", mac)
		}
	}
}

// TestGenHexString verifies length and prefix parameters
func TestGenHexString(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	v, err := genHexString(rng, map[string]any{"length": 12, "prefix": "0x"})
	if err != nil {
		t.Fatalf("genHexString() error = %v", err)
	}
	if !regexp.MustCompile(`^0x[0-9a-f]{12}$`).MatchString(v) {
		t.Errorf("bad hex string %q", v)
	}

	// Defaults: 16 digits, no prefix. YAML decodes ints as int, JSON as
	// float64; both must be tolerated.
	v, err = genHexString(rng, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 16 {
		t.Errorf("default length = %d, want 16", len(v))
	}
	if _, err := genHexString(rng, map[string]any{"length": float64(4)}); err != nil {
		t.Errorf("float64 length rejected: %v", err)
	}

	if _, err := genHexString(rng, map[string]any{"length": 0}); err == nil {
		t.Error("zero length accepted")
	}
}

// TestGenUUID verifies valid v4 identifiers reproducible from a seed
func TestGenUUID(t *testing.T) {
	a, err := genUUID(rand.New(rand.NewSource(5)), nil)
	if err != nil {
		t.Fatalf("genUUID() error = %v", err)
	}
	parsed, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("unparseable uuid %q: %v", a, err)
	}
	if parsed.Version() != 4 {
		t.Errorf("uuid version = %d, want 4", parsed.Version())
	}

	b, err := genUUID(rand.New(rand.NewSource(5)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same seed produced %q and %q", a, b)
	}
}
