package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_Push(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.True(s.Empty())
	assert.False(s.Full())

	err := s.Push(-0x12345678)
	assert.NoError(err)
	assert.False(s.Empty())
	assert.Equal(1, len(s.Data))
	assert.Equal(int64(-0x12345678), s.Data[0])
}

func TestStack_Pop(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.NoError(s.Push(0x12345678))
	assert.NoError(s.Push(0x7BCDEF01))

	val, err := s.Pop()
	assert.NoError(err)
	assert.Equal(int64(0x7BCDEF01), val)
	assert.Equal(1, len(s.Data))

	val, err = s.Pop()
	assert.NoError(err)
	assert.Equal(int64(0x12345678), val)
	assert.Equal(0, len(s.Data))
}

func TestStack_Pop_Empty(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	val, err := s.Pop()
	assert.ErrorIs(err, ErrStackUnderflow)
	assert.Equal(int64(0), val)
}

func TestStack_Peek(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.NoError(s.Push(1))
	assert.NoError(s.Push(2))

	val, ok := s.Peek()
	assert.True(ok)
	assert.Equal(int64(2), val)
	assert.Equal(2, len(s.Data))

	s.Reset()
	_, ok = s.Peek()
	assert.False(ok)
}

func TestStack_Overflow(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}

	for i := 0; i < STACK_LIMIT; i++ {
		assert.False(s.Full())
		assert.NoError(s.Push(int64(i)))
	}

	assert.True(s.Full())
	assert.Equal(STACK_LIMIT, len(s.Data))

	err := s.Push(STACK_LIMIT)
	assert.ErrorIs(err, ErrStackOverflow)
	assert.Equal(STACK_LIMIT, len(s.Data))
}
