package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/fdprefetch/sim"
)

type testTimeTeller struct {
	currentTime sim.VTimeInCycle
}

func (t *testTimeTeller) CurrentTime() sim.VTimeInCycle {
	return t.currentTime
}

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		recorder   *MockDataRecorder
		timeTeller *testTimeTeller
		tracer     *DBTracer
	)

	prefetch := func(id string) Task {
		return Task{
			ID:       id,
			Kind:     "prefetch",
			What:     "near",
			Location: "L2Prefetcher",
		}
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockDataRecorder(mockCtrl)
		timeTeller = &testTimeTeller{}

		recorder.EXPECT().CreateTable(TaskTableName, taskTableEntry{})
		tracer = NewDBTracer(timeTeller, recorder)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should write a task with its latency", func() {
		timeTeller.currentTime = 100
		tracer.StartTask(prefetch("a"))

		timeTeller.currentTime = 350
		recorder.EXPECT().InsertData(TaskTableName, taskTableEntry{
			ID:        "a",
			Kind:      "prefetch",
			What:      "near",
			Location:  "L2Prefetcher",
			StartTime: 100,
			EndTime:   350,
			Latency:   250,
		})
		tracer.EndTask(Task{ID: "a"})

		Expect(tracer.InFlight()).To(Equal(0))
		Expect(tracer.Written()).To(Equal(uint64(1)))
	})

	It("should record the steps of a task", func() {
		timeTeller.currentTime = 10
		tracer.StartTask(prefetch("a"))

		timeTeller.currentTime = 40
		tracer.StepTask(Task{ID: "a", Steps: []TaskStep{{What: "late"}}})
		tracer.StepTask(Task{ID: "b", Steps: []TaskStep{{What: "late"}}})

		timeTeller.currentTime = 90
		recorder.EXPECT().InsertData(TaskTableName, gomock.Any()).
			Do(func(_ string, entry any) {
				e := entry.(taskTableEntry)
				Expect(e.Steps).To(Equal("late@40"))
				Expect(e.Latency).To(Equal(uint64(80)))
			})
		tracer.EndTask(Task{ID: "a"})
	})

	It("should keep the first start of a task", func() {
		timeTeller.currentTime = 10
		tracer.StartTask(prefetch("a"))

		timeTeller.currentTime = 20
		tracer.StartTask(prefetch("a"))
		Expect(tracer.InFlight()).To(Equal(1))

		recorder.EXPECT().InsertData(TaskTableName, gomock.Any()).
			Do(func(_ string, entry any) {
				Expect(entry.(taskTableEntry).StartTime).To(Equal(uint64(10)))
			})
		tracer.EndTask(Task{ID: "a"})
	})

	It("should ignore tasks that never started", func() {
		tracer.EndTask(Task{ID: "a"})

		Expect(tracer.Written()).To(Equal(uint64(0)))
	})

	It("should panic on tasks without a location", func() {
		task := prefetch("a")
		task.Location = ""

		Expect(func() { tracer.StartTask(task) }).To(Panic())
	})

	It("should drop tasks in flight on terminate", func() {
		tracer.StartTask(prefetch("a"))

		recorder.EXPECT().Flush()
		tracer.Terminate()

		Expect(tracer.InFlight()).To(Equal(0))
	})
})
