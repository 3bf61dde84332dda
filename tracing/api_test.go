package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fdprefetch/sim"
)

type sampleDomain struct {
	sim.HookableBase
	name string
}

func (d *sampleDomain) Name() string {
	return d.name
}

type sampleTracer struct {
	started, stepped, ended []Task
}

func (t *sampleTracer) StartTask(task Task) { t.started = append(t.started, task) }
func (t *sampleTracer) StepTask(task Task)  { t.stepped = append(t.stepped, task) }
func (t *sampleTracer) EndTask(task Task)   { t.ended = append(t.ended, task) }

var _ = Describe("API", func() {
	var (
		domain *sampleDomain
		tracer *sampleTracer
	)

	BeforeEach(func() {
		domain = &sampleDomain{name: "Engine"}
		tracer = &sampleTracer{}
	})

	It("should do nothing without hooks", func() {
		StartTask("1", domain, "prefetch", "near", nil)
		AddTaskStep("1", domain, "late")
		EndTask("1", domain)

		Expect(tracer.started).To(BeEmpty())
	})

	It("should forward tasks to the tracer", func() {
		CollectTrace(domain, tracer)

		StartTask("1", domain, "prefetch", "near", 42)
		AddTaskStep("1", domain, "late")
		EndTask("1", domain)

		Expect(tracer.started).To(HaveLen(1))
		Expect(tracer.started[0].Location).To(Equal("Engine"))
		Expect(tracer.started[0].Detail).To(Equal(42))
		Expect(tracer.stepped[0].Steps).To(Equal([]TaskStep{{What: "late"}}))
		Expect(tracer.ended[0].ID).To(Equal("1"))
	})

	It("should panic on incomplete tasks", func() {
		CollectTrace(domain, tracer)

		Expect(func() { StartTask("", domain, "prefetch", "near", nil) }).
			To(Panic())
		Expect(func() { StartTask("1", domain, "", "near", nil) }).
			To(Panic())
		Expect(func() { StartTask("1", domain, "prefetch", "", nil) }).
			To(Panic())

		domain.name = ""
		Expect(func() { StartTask("1", domain, "prefetch", "near", nil) }).
			To(Panic())
	})

	It("should not collect twice with the same tracer", func() {
		CollectTrace(domain, tracer)

		Expect(func() { CollectTrace(domain, tracer) }).To(Panic())
		Expect(domain.NumHooks()).To(Equal(1))
	})
})
