package utils

// ToCmdLine packs plain strings into the [][]byte shape commands are
// dispatched with, so callers building synthetic commands (tests, the
// watch/multi undo log) don't juggle byte conversions themselves.
func ToCmdLine(cmd ...string) [][]byte {
	args := make([][]byte, len(cmd))
	for i, s := range cmd {
		args[i] = []byte(s)
	}
	return args
}

// ToCmdLine2 is ToCmdLine with the command name kept separate from its
// string arguments, the common shape for building a command to re-dispatch.
func ToCmdLine2(commandName string, args ...string) [][]byte {
	result := make([][]byte, len(args)+1)
	result[0] = []byte(commandName)
	for i, s := range args {
		result[i+1] = []byte(s)
	}
	return result
}

// ToCmdLine3 is ToCmdLine2 for arguments that are already []byte, avoiding
// a round trip through string when the caller already holds raw bytes.
func ToCmdLine3(commandName string, args ...[]byte) [][]byte {
	result := make([][]byte, len(args)+1)
	result[0] = []byte(commandName)
	for i, s := range args {
		result[i+1] = s
	}
	return result
}

// Equals reports whether two stored values are equal, treating []byte
// specially since two distinct slices with the same contents must compare
// equal for SETNX/WATCH-style comparisons.
func Equals(a interface{}, b interface{}) bool {
	sliceA, okA := a.([]byte)
	sliceB, okB := b.([]byte)
	if okA && okB {
		return BytesEquals(sliceA, sliceB)
	}
	return a == b
}

// BytesEquals reports whether a and b hold the same bytes.
func BytesEquals(a []byte, b []byte) bool {
	if (a == nil && b != nil) || (a != nil && b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	size := len(a)
	for i := 0; i < size; i++ {
		av := a[i]
		bv := b[i]
		if av != bv {
			return false
		}
	}
	return true
}

// ConvertRange maps an inclusive index range (negative indexes count from
// the end) onto a slice range [beg, end), or (-1, -1) if it selects nothing.
func ConvertRange(start int64, end int64, size int64) (int, int) {
	if start < 0 {
		start += size
	}
	if end < 0 {
		end += size
	}
	if start < 0 || start >= size || end < 0 || start > end {
		return -1, -1
	}
	return int(start), int(min(end+1, size))
}
