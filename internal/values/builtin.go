package values

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// registerBuiltins installs the generators shipped with the tool. They cover
// common network-ish value shapes schemas keep reaching for.
func registerBuiltins(r *Registry) {
	r.Register("ip_address", genIPAddress)
	r.Register("port_range", genPortRange)
	r.Register("mac_address", genMACAddress)
	r.Register("hex_string", genHexString)
	r.Register("uuid", genUUID)
}

// genIPAddress produces IPv4 addresses.
//
// Params:
//
//	private_only      bool - only RFC1918 (and optionally loopback) ranges
//	include_localhost bool - allow 127.x.x.x when private_only (default true)
func genIPAddress(rng *rand.Rand, params map[string]any) (string, error) {
	privateOnly := boolParam(params, "private_only", false)
	includeLocalhost := boolParam(params, "include_localhost", true)

	if !privateOnly {
		return fmt.Sprintf("%d.%d.%d.%d",
			1+rng.Intn(223), rng.Intn(256), rng.Intn(256), 1+rng.Intn(254)), nil
	}

	limit := 3
	if includeLocalhost {
		limit = 4
	}
	switch rng.Intn(limit) {
	case 0:
		return fmt.Sprintf("10.%d.%d.%d", rng.Intn(256), rng.Intn(256), 1+rng.Intn(254)), nil
	case 1:
		return fmt.Sprintf("172.%d.%d.%d", 16+rng.Intn(16), rng.Intn(256), 1+rng.Intn(254)), nil
	case 2:
		return fmt.Sprintf("192.168.%d.%d", rng.Intn(256), 1+rng.Intn(254)), nil
	default:
		return fmt.Sprintf("127.%d.%d.%d", rng.Intn(256), rng.Intn(256), 1+rng.Intn(254)), nil
	}
}

// genPortRange produces a port number or a "low-high" port range.
//
// Params:
//
//	min_port          int     - lower bound (default 1024)
//	max_port          int     - upper bound (default 65535)
//	range_probability float64 - chance of emitting a range (default 0.3)
func genPortRange(rng *rand.Rand, params map[string]any) (string, error) {
	minPort := intParam(params, "min_port", 1024)
	maxPort := intParam(params, "max_port", 65535)
	if minPort > maxPort {
		return "", fmt.Errorf("min_port %d > max_port %d", minPort, maxPort)
	}
	rangeProb := floatParam(params, "range_probability", 0.3)

	port := boundedDraw(rng, minPort, maxPort)
	if rng.Float64() < rangeProb && port < maxPort {
		return fmt.Sprintf("%d-%d", port, boundedDraw(rng, port+1, maxPort)), nil
	}
	return fmt.Sprintf("%d", port), nil
}

// genMACAddress produces colon-separated MAC addresses.
func genMACAddress(rng *rand.Rand, _ map[string]any) (string, error) {
	parts := make([]string, 6)
	for i := range parts {
		parts[i] = fmt.Sprintf("%02x", rng.Intn(256))
	}
	return strings.Join(parts, ":"), nil
}

// genHexString produces hexadecimal strings.
//
// Params:
//
//	length int    - number of hex digits (default 16)
//	prefix string - prepended verbatim (default "")
func genHexString(rng *rand.Rand, params map[string]any) (string, error) {
	length := intParam(params, "length", 16)
	if length < 1 {
		return "", fmt.Errorf("length must be >= 1, got %d", length)
	}
	prefix := stringParam(params, "prefix", "")

	const digits = "0123456789abcdef"
	b := make([]byte, length)
	for i := range b {
		b[i] = digits[rng.Intn(len(digits))]
	}
	return prefix + string(b), nil
}

// genUUID produces version-4 UUIDs from the case stream, so the same seed
// reproduces the same identifiers.
func genUUID(rng *rand.Rand, _ map[string]any) (string, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return id.String(), nil
}

// Param helpers tolerate the numeric types JSON and YAML decoding produce.

func boolParam(params map[string]any, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

func intParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func floatParam(params map[string]any, key string, def float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func stringParam(params map[string]any, key string, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}
