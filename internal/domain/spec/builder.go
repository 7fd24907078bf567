package spec

// Builder accumulates a Spec through successive calls.
// It is not safe for concurrent use.
type Builder struct {
	current Spec
}

// NewBuilder returns a builder starting from None.
func NewBuilder() *Builder {
	return &Builder{}
}

// And ANDs s onto the accumulated spec.
func (b *Builder) And(s Spec) *Builder {
	b.current = And(b.current, s)
	return b
}

// Or ORs s onto the accumulated spec.
func (b *Builder) Or(s Spec) *Builder {
	b.current = Or(b.current, s)
	return b
}

// AndIf ANDs s only when cond holds.
func (b *Builder) AndIf(cond bool, s Spec) *Builder {
	b.current = AndIf(b.current, cond, s)
	return b
}

// OrIf ORs s only when cond holds.
func (b *Builder) OrIf(cond bool, s Spec) *Builder {
	b.current = OrIf(b.current, cond, s)
	return b
}

// Build returns the accumulated spec, None if nothing was added.
func (b *Builder) Build() Spec {
	return b.current
}

// BuildOrDefault returns def when nothing was added.
func (b *Builder) BuildOrDefault(def Spec) Spec {
	if b.current.IsEmpty() {
		return def
	}
	return b.current
}
