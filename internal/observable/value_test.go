package observable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscribeReceivesCurrentValue(t *testing.T) {
	v := New("initial")
	var got []string
	v.Subscribe(func(s string) { got = append(got, s) })
	assert.Equal(t, []string{"initial"}, got)
}

func TestSetNotifiesAllSubscribers(t *testing.T) {
	v := New(0)
	var a, b []int
	v.Subscribe(func(n int) { a = append(a, n) })
	v.Subscribe(func(n int) { b = append(b, n) })

	v.Set(1)
	v.Set(2)

	assert.Equal(t, []int{0, 1, 2}, a)
	assert.Equal(t, []int{0, 1, 2}, b)
	assert.Equal(t, 2, v.Get())
}

func TestUnsubscribe(t *testing.T) {
	v := New[*string](nil)
	calls := 0
	unsubscribe := v.Subscribe(func(*string) { calls++ })
	unsubscribe()
	unsubscribe()

	s := "x"
	v.Set(&s)
	assert.Equal(t, 1, calls)
}

func TestSubscriberMaySetFromCallback(t *testing.T) {
	v := New(0)
	v.Subscribe(func(n int) {
		if n == 1 {
			v.Set(2)
		}
	})
	v.Set(1)
	assert.Equal(t, 2, v.Get())
}
