package sim

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wavelab/wavesim/vtime"
)

var _ = Describe("Simulator", func() {
	var (
		s *Simulator
	)

	BeforeEach(func() {
		s = NewSimulator()
	})

	schedule := func(delay vtime.Duration, cb Callback) EventHandle {
		h, err := s.ScheduleAfter(delay, cb)
		Expect(err).ToNot(HaveOccurred())
		return h
	}

	It("should fire events in time order with FIFO tie-break", func() {
		var order []string

		mark := func(name string) Callback {
			return func() error {
				order = append(order, name)
				return nil
			}
		}

		schedule(5, mark("5"))
		schedule(3, mark("3a"))
		schedule(3, mark("3b"))
		schedule(7, mark("7"))

		Expect(s.Run()).To(Succeed())
		Expect(order).To(Equal([]string{"3a", "3b", "5", "7"}))
	})

	It("should let each callback observe its own fire time", func() {
		fireTimes := []vtime.Duration{2, 9, 4, 4, 0, 100}
		invocations := 0

		for _, d := range fireTimes {
			delay := d
			schedule(delay, func() error {
				invocations++
				Expect(s.Now()).To(Equal(vtime.Time(delay)))
				return nil
			})
		}

		Expect(s.Run()).To(Succeed())
		Expect(invocations).To(Equal(len(fireTimes)))
	})

	It("should never let time regress", func() {
		last := vtime.Time(-1)

		var observe Callback
		observe = func() error {
			Expect(s.Now() >= last).To(BeTrue())
			last = s.Now()
			if s.Now() < 20 {
				_, err := s.ScheduleAfter(2, observe)
				Expect(err).ToNot(HaveOccurred())
				_, err = s.ScheduleAfter(3, observe)
				Expect(err).ToNot(HaveOccurred())
			}
			return nil
		}

		schedule(0, observe)
		Expect(s.Run()).To(Succeed())
	})

	It("should run same-instant events scheduled now behind earlier ones",
		func() {
			var order []string

			schedule(1, func() error {
				order = append(order, "first")
				_, err := s.ScheduleNow(func() error {
					order = append(order, "now")
					return nil
				})
				return err
			})
			schedule(1, func() error {
				order = append(order, "second")
				return nil
			})

			Expect(s.Run()).To(Succeed())
			Expect(order).To(Equal([]string{"first", "second", "now"}))
		})

	It("should reject negative delays and leave the queue unchanged",
		func() {
			_, err := s.ScheduleAfter(-5, func() error { return nil })

			Expect(errors.Is(err, ErrInvalidDelay)).To(BeTrue())
			Expect(s.queue.IsEmpty()).To(BeTrue())
		})

	It("should surface overflow when computing the fire time", func() {
		schedule(1, func() error {
			_, err := s.ScheduleAfter(math.MaxInt64, func() error {
				return nil
			})
			Expect(errors.Is(err, vtime.ErrOverflow)).To(BeTrue())
			return nil
		})

		Expect(s.Run()).To(Succeed())
	})

	Context("when cancelling events", func() {
		It("should never invoke a cancelled callback", func() {
			invoked := false
			h := schedule(10, func() error {
				invoked = true
				return nil
			})

			Expect(h.Cancel()).To(BeTrue())
			Expect(s.Run()).To(Succeed())

			Expect(invoked).To(BeFalse())
			Expect(s.queue.IsEmpty()).To(BeTrue())
		})

		It("should treat double cancellation as a no-op", func() {
			h := schedule(10, func() error { return nil })

			Expect(h.Cancel()).To(BeTrue())
			Expect(h.Cancel()).To(BeFalse())
		})

		It("should treat cancelling a fired event as a no-op", func() {
			h := schedule(1, func() error { return nil })

			Expect(s.Run()).To(Succeed())

			Expect(h.Cancel()).To(BeFalse())
			Expect(h.IsExpired()).To(BeTrue())
		})

		It("should allow an event to cancel itself while executing", func() {
			var h EventHandle
			h = schedule(1, func() error {
				Expect(h.Cancel()).To(BeFalse())
				return nil
			})

			Expect(s.Run()).To(Succeed())
		})

		It("should still advance time past a cancelled event", func() {
			h := schedule(10, func() error { return nil })
			schedule(20, func() error {
				Expect(s.Now()).To(Equal(vtime.Time(20)))
				return nil
			})

			h.Cancel()
			Expect(s.Run()).To(Succeed())
			Expect(s.Now()).To(Equal(vtime.Time(20)))
		})
	})

	Context("when stopping", func() {
		It("should stop after the current event on Stop", func() {
			invocations := 0

			schedule(1, func() error {
				invocations++
				s.Stop()
				return nil
			})
			schedule(2, func() error {
				invocations++
				return nil
			})

			Expect(s.Run()).To(Succeed())
			Expect(invocations).To(Equal(1))
		})

		It("should honor an inclusive StopAt bound", func() {
			invocations := 0

			var reschedule Callback
			reschedule = func() error {
				invocations++
				_, err := s.ScheduleAfter(1, reschedule)
				return err
			}

			schedule(0, reschedule)
			s.StopAt(100)

			Expect(s.Run()).To(Succeed())
			Expect(invocations).To(Equal(101))
			Expect(s.Now()).To(Equal(vtime.Time(100)))
		})

		It("should stop immediately on a StopAt bound in the past", func() {
			invocations := 0

			schedule(10, func() error {
				invocations++
				s.StopAt(5)
				return nil
			})
			schedule(20, func() error {
				invocations++
				return nil
			})

			Expect(s.Run()).To(Succeed())
			Expect(invocations).To(Equal(1))
		})

		It("should allow running again after a stop", func() {
			var order []string

			schedule(1, func() error {
				order = append(order, "first")
				s.Stop()
				return nil
			})
			schedule(2, func() error {
				order = append(order, "second")
				return nil
			})

			Expect(s.Run()).To(Succeed())
			Expect(s.Run()).To(Succeed())
			Expect(order).To(Equal([]string{"first", "second"}))
		})
	})

	Context("when a callback faults", func() {
		It("should propagate the fault out of Run", func() {
			cause := errors.New("model bug")
			invocations := 0

			schedule(1, func() error {
				invocations++
				return cause
			})
			schedule(2, func() error {
				invocations++
				return nil
			})

			err := s.Run()

			var fault *CallbackFault
			Expect(errors.As(err, &fault)).To(BeTrue())
			Expect(fault.Time).To(Equal(vtime.Time(1)))
			Expect(errors.Is(err, cause)).To(BeTrue())
			Expect(invocations).To(Equal(1))
		})
	})

	Context("with contexts", func() {
		It("should expose the active context to callbacks", func() {
			const nodeA, nodeB = ContextID(1), ContextID(2)

			_, err := s.ScheduleAt(nodeA, 5, func() error {
				Expect(s.Context()).To(Equal(nodeA))

				// Transmitter schedules the reception in the
				// receiver's context.
				_, err := s.ScheduleAt(nodeB, 3, func() error {
					Expect(s.Context()).To(Equal(nodeB))
					Expect(s.ContextTime(nodeB)).To(Equal(vtime.Time(8)))
					return nil
				})
				return err
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(s.Run()).To(Succeed())
			Expect(s.Context()).To(Equal(AnyContext))
		})

		It("should restore the previous context when a callback faults",
			func() {
				const node = ContextID(7)

				_, err := s.ScheduleAt(node, 1, func() error {
					return errors.New("boom")
				})
				Expect(err).ToNot(HaveOccurred())

				Expect(s.Run()).ToNot(Succeed())
				Expect(s.Context()).To(Equal(AnyContext))
			})

		It("should record when a context's event last started", func() {
			const node = ContextID(3)

			_, err := s.ScheduleAt(node, 4, func() error { return nil })
			Expect(err).ToNot(HaveOccurred())
			schedule(9, func() error {
				Expect(s.ContextTime(node)).To(Equal(vtime.Time(4)))
				return nil
			})

			Expect(s.Run()).To(Succeed())
		})
	})

	Context("when destroying", func() {
		It("should fire destroy events in registration order", func() {
			var order []string

			_, err := s.ScheduleDestroy(func() error {
				order = append(order, "a")
				return nil
			})
			Expect(err).ToNot(HaveOccurred())
			_, err = s.ScheduleDestroy(func() error {
				order = append(order, "b")
				return nil
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(s.Run()).To(Succeed())
			Expect(s.Destroy()).To(Succeed())
			Expect(order).To(Equal([]string{"a", "b"}))
		})

		It("should not re-invoke destroy events on a second Destroy", func() {
			invocations := 0

			_, err := s.ScheduleDestroy(func() error {
				invocations++
				return nil
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(s.Destroy()).To(Succeed())
			Expect(s.Destroy()).To(Succeed())
			Expect(invocations).To(Equal(1))
		})

		It("should release pending events without invoking them", func() {
			invoked := false
			h := schedule(50, func() error {
				invoked = true
				return nil
			})

			Expect(s.Destroy()).To(Succeed())

			Expect(invoked).To(BeFalse())
			Expect(h.IsExpired()).To(BeTrue())
			Expect(s.queue.IsEmpty()).To(BeTrue())
		})

		It("should skip cancelled destroy events", func() {
			invoked := false
			h, err := s.ScheduleDestroy(func() error {
				invoked = true
				return nil
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(h.Cancel()).To(BeTrue())
			Expect(s.Destroy()).To(Succeed())
			Expect(invoked).To(BeFalse())
		})

		It("should refuse scheduling after Destroy", func() {
			Expect(s.Destroy()).To(Succeed())

			_, err := s.ScheduleAfter(1, func() error { return nil })
			Expect(errors.Is(err, ErrNotRunnable)).To(BeTrue())

			_, err = s.ScheduleDestroy(func() error { return nil })
			Expect(errors.Is(err, ErrNotRunnable)).To(BeTrue())

			Expect(errors.Is(s.Run(), ErrNotRunnable)).To(BeTrue())
		})
	})

	Context("with hooks", func() {
		It("should invoke hooks around each dispatched event", func() {
			hook := &recordingHook{}
			s.AcceptHook(hook)

			schedule(3, func() error { return nil })

			Expect(s.Run()).To(Succeed())

			Expect(hook.positions).To(Equal(
				[]*HookPos{HookPosBeforeEvent, HookPosAfterEvent}))
			info := hook.items[0].(EventInfo)
			Expect(info.Time).To(Equal(vtime.Time(3)))
		})

		It("should not invoke hooks for cancelled events", func() {
			hook := &recordingHook{}
			s.AcceptHook(hook)

			h := schedule(3, func() error { return nil })
			h.Cancel()

			Expect(s.Run()).To(Succeed())
			Expect(hook.positions).To(BeEmpty())
		})
	})
})

type recordingHook struct {
	positions []*HookPos
	items     []any
}

func (h *recordingHook) Func(ctx HookCtx) {
	h.positions = append(h.positions, ctx.Pos)
	h.items = append(h.items, ctx.Item)
}
