package sim

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type namedHandler struct {
	recordingHandler
}

func (h *namedHandler) Name() string {
	return "Cache"
}

var _ = Describe("EventLogger", func() {
	It("should print the events before they run", func() {
		buf := new(bytes.Buffer)
		engine := NewSerialEngine()
		engine.AcceptHook(NewEventLogger(log.New(buf, "", 0)))

		engine.Schedule(newTestEvent(3, &namedHandler{}, "a"))
		engine.Schedule(newTestEvent(7, &recordingHandler{}, "b"))

		Expect(engine.Run()).To(Succeed())
		Expect(buf.String()).To(Equal(
			"3, sim.testEvent -> Cache\n7, sim.testEvent\n"))
	})
})
