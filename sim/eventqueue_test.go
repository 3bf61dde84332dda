package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EventQueueImpl", func() {
	var (
		queue   *EventQueueImpl
		handler *recordingHandler
	)

	BeforeEach(func() {
		queue = NewEventQueue()
		handler = &recordingHandler{}
	})

	It("should pop in order", func() {
		numEvents := 100
		for i := 0; i < numEvents; i++ {
			t := VTimeInCycle(rand.Uint64() % 1000)
			queue.Push(newTestEvent(t, handler, ""))
		}

		now := VTimeInCycle(0)
		for i := 0; i < numEvents; i++ {
			event := queue.Pop()
			Expect(event.Time() >= now).To(BeTrue())
			now = event.Time()
		}

		Expect(queue.Len()).To(Equal(0))
	})

	It("should keep push order for same-cycle events", func() {
		queue.Push(newTestEvent(5, handler, "a"))
		queue.Push(newTestEvent(3, handler, "b"))
		queue.Push(newTestEvent(5, handler, "c"))
		queue.Push(newTestEvent(5, handler, "d"))

		Expect(queue.Peek().(testEvent).label).To(Equal("b"))

		popped := []Event{}
		for queue.Len() > 0 {
			popped = append(popped, queue.Pop())
		}

		Expect(labels(popped)).To(Equal([]string{"b", "a", "c", "d"}))
	})
})
