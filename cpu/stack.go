package cpu

import (
	"math"
)

// Stack is the operand stack. It is bounded only by the int16 range of
// its values.
type Stack struct {
	Data []int16
}

// Push checks that value fits in a stack slot, and pushes it.
func (s *Stack) Push(value int) (err error) {
	if value < math.MinInt16 || value > math.MaxInt16 {
		err = ErrStackValue
		return
	}

	s.Data = append(s.Data, int16(value))
	return
}

func (s *Stack) Pop() (value int16, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Data = s.Data[:len(s.Data)-1]
	}
	return
}

func (s *Stack) Empty() bool {
	return len(s.Data) == 0
}

func (s *Stack) Len() int {
	return len(s.Data)
}

func (s *Stack) Peek() (value int16, ok bool) {
	return s.PeekAt(0)
}

// PeekAt returns the value depth slots below the top of stack.
func (s *Stack) PeekAt(depth int) (value int16, ok bool) {
	if depth < 0 || depth >= len(s.Data) {
		return
	}

	return s.Data[len(s.Data)-1-depth], true
}

// Values returns a copy of the stack, bottom to top.
func (s *Stack) Values() (values []int) {
	values = make([]int, len(s.Data))
	for n, value := range s.Data {
		values[n] = int(value)
	}
	return
}

func (s *Stack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
