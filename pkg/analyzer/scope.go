package analyzer

// scopeStack tracks the lexical nesting of named declarations during a
// single-file traversal. Every push is paired with a pop on all exit paths
// of the walk; the stack must return to its pre-traversal depth afterwards.
type scopeStack struct {
	names []string
}

// push enters the scope introduced by the named declaration.
func (s *scopeStack) push(name string) {
	s.names = append(s.names, name)
}

// pop exits the innermost scope. Popping an empty stack is a bookkeeping
// bug; it panics rather than silently corrupting scope attribution.
func (s *scopeStack) pop() string {
	if len(s.names) == 0 {
		panic("scope stack underflow")
	}
	name := s.names[len(s.names)-1]
	s.names = s.names[:len(s.names)-1]
	return name
}

// current returns the innermost scope name, or "" at the top level.
func (s *scopeStack) current() string {
	if len(s.names) == 0 {
		return ""
	}
	return s.names[len(s.names)-1]
}

// depth returns the current nesting depth.
func (s *scopeStack) depth() int {
	return len(s.names)
}
