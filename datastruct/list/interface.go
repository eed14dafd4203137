package list

// Expected reports whether a list element matches some target value,
// the predicate LREM and friends use instead of a fixed equality check.
type Expected func(a interface{}) bool

// Consumer is called once per visited element with its index; returning
// false stops the traversal early (used by LPOS to bail out on first match).
type Consumer func(i int, v interface{}) bool

// List is the storage behind the LIST family of commands. QuickList is the
// implementation command handlers construct; LinkedList satisfies the same
// interface with a plain doubly-linked structure.
type List interface {
	Add(val interface{})
	Get(index int) (val interface{})
	Set(index int, val interface{})
	Insert(index int, val interface{})
	Remove(index int) (val interface{})
	RemoveLast() (val interface{})
	RemoveAllByVal(expected Expected) int
	RemoveByVal(expected Expected, count int) int
	ReverseRemoveByVal(expected Expected, count int) int
	Len() int
	ForEach(consumer Consumer)
	Contains(expected Expected) bool
	Range(start int, stop int) []interface{}
}
