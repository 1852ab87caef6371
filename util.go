package realvk

import (
	"strings"
	"unsafe"
)

// safeString appends the NUL terminator the C side expects.
func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

// checkExisting returns the NUL-terminated names from required that appear in
// actual, and how many were missing.
func checkExisting(actual, required []string) (existing []string, missing int) {
	have := make(map[string]struct{}, len(actual))
	for _, name := range actual {
		have[strings.TrimSuffix(name, "\x00")] = struct{}{}
	}
	for _, name := range required {
		if _, ok := have[strings.TrimSuffix(name, "\x00")]; ok {
			existing = append(existing, safeString(name))
		} else {
			missing++
		}
	}
	return existing, missing
}

// mergeNames appends the names of b not already in a, keeping order.
func mergeNames(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, name := range list {
			key := strings.TrimSuffix(name, "\x00")
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// sliceUint32 reinterprets SPIR-V bytes as words. len(data) must be a
// multiple of 4.
func sliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	words := make([]uint32, len(data)/4)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*4), data)
	return words
}

func clamp[T ~uint32 | ~int | ~float32](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
