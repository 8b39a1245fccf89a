package expr

const (
	STACK_LIMIT = 32 // Maximum stack depth
)

// Stack is the bounded operand stack of a Machine.
type Stack struct {
	Data []int64
}

// Push a value, failing once STACK_LIMIT values are held.
func (s *Stack) Push(value int64) (err error) {
	if s.Full() {
		return ErrStackOverflow
	}

	s.Data = append(s.Data, value)
	return
}

// Pop the top value, failing on an empty stack.
func (s *Stack) Pop() (value int64, err error) {
	value, ok := s.Peek()
	if !ok {
		err = ErrStackUnderflow
		return
	}

	s.Data = s.Data[:len(s.Data)-1]
	return
}

func (s *Stack) Empty() bool {
	return len(s.Data) == 0
}

func (s *Stack) Full() bool {
	return len(s.Data) >= STACK_LIMIT
}

func (s *Stack) Peek() (value int64, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

func (s *Stack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
