package hyperloglog

import (
	"fmt"
	"math"
	"testing"
)

func TestEmptyIsEmpty(t *testing.T) {
	h := New()
	if !h.IsEmpty() {
		t.Error("a freshly created estimator should be empty")
	}
	h.Add([]byte("x"))
	if h.IsEmpty() {
		t.Error("estimator should no longer be empty after Add")
	}
}

func TestCountApproximatesCardinality(t *testing.T) {
	h := New()
	const n = 10000
	for i := 0; i < n; i++ {
		h.Add([]byte(fmt.Sprintf("elem-%d", i)))
	}
	count := h.Count()
	errRatio := math.Abs(float64(count)-float64(n)) / float64(n)
	if errRatio > 0.03 {
		t.Errorf("estimate %d too far from actual %d (err ratio %f)", count, n, errRatio)
	}
}

func TestAddDuplicateDoesNotInflateCount(t *testing.T) {
	h := New()
	for i := 0; i < 1000; i++ {
		h.Add([]byte("same-element"))
	}
	count := h.Count()
	if count > 5 {
		t.Errorf("adding the same element repeatedly should estimate close to 1, got %d", count)
	}
}

func TestSparseConvertsToDense(t *testing.T) {
	h := New()
	if !h.isSparse() {
		t.Fatal("new estimator should start sparse")
	}
	// distinct elements can land in the same register, so add well over
	// sparseToDenseThreshold elements to get more than that many entries
	for i := 0; i < 2*sparseToDenseThreshold; i++ {
		h.Add([]byte(fmt.Sprintf("elem-%d", i)))
	}
	if h.isSparse() {
		t.Error("estimator should have converted to dense once the sparse list grew past the threshold")
	}
}

func TestMergeUnionsCardinality(t *testing.T) {
	a := New()
	b := New()
	for i := 0; i < 5000; i++ {
		a.Add([]byte(fmt.Sprintf("a-%d", i)))
	}
	for i := 0; i < 5000; i++ {
		b.Add([]byte(fmt.Sprintf("b-%d", i)))
	}
	a.Merge(b)
	count := a.Count()
	errRatio := math.Abs(float64(count)-10000) / 10000
	if errRatio > 0.05 {
		t.Errorf("merged estimate %d too far from expected 10000 (err ratio %f)", count, errRatio)
	}
}

func TestMergeOverlappingSetsDoesNotDoubleCount(t *testing.T) {
	a := New()
	b := New()
	for i := 0; i < 5000; i++ {
		elem := []byte(fmt.Sprintf("elem-%d", i))
		a.Add(elem)
		b.Add(elem)
	}
	a.Merge(b)
	count := a.Count()
	errRatio := math.Abs(float64(count)-5000) / 5000
	if errRatio > 0.05 {
		t.Errorf("merging identical sets should still estimate ~5000, got %d (err ratio %f)", count, errRatio)
	}
}

func TestMergeNilIsNoOp(t *testing.T) {
	h := New()
	h.Add([]byte("x"))
	before := h.Count()
	h.Merge(nil)
	if h.Count() != before {
		t.Error("merging nil should not change the estimate")
	}
}

func TestRegistersRoundTrip(t *testing.T) {
	h := New()
	for i := 0; i < 2000; i++ {
		h.Add([]byte(fmt.Sprintf("elem-%d", i)))
	}
	regs := h.Registers()
	rebuilt, ok := FromRegisters(regs)
	if !ok {
		t.Fatal("FromRegisters should accept a valid register array")
	}
	if rebuilt.Count() != h.Count() {
		t.Errorf("round-tripped estimator should estimate the same cardinality: got %d want %d", rebuilt.Count(), h.Count())
	}
}

func TestFromRegistersRejectsWrongLength(t *testing.T) {
	if _, ok := FromRegisters(make([]byte, 10)); ok {
		t.Error("expected FromRegisters to reject a short register array")
	}
}

func TestFromRegistersRejectsOutOfRangeValue(t *testing.T) {
	regs := make([]byte, registerCount)
	regs[0] = registerMax + 1
	if _, ok := FromRegisters(regs); ok {
		t.Error("expected FromRegisters to reject a register value above registerMax")
	}
}
