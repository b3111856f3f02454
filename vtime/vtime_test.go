package vtime

import (
	"errors"
	"math"
	stdtime "time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Time", func() {
	It("should add a duration", func() {
		t, err := Time(100).Add(Duration(50))

		Expect(err).ToNot(HaveOccurred())
		Expect(t).To(Equal(Time(150)))
	})

	It("should subtract yielding a duration", func() {
		d, err := Time(150).Sub(Time(100))

		Expect(err).ToNot(HaveOccurred())
		Expect(d).To(Equal(Duration(50)))
	})

	It("should surface overflow on addition", func() {
		_, err := Time(math.MaxInt64).Add(Duration(1))

		Expect(errors.Is(err, ErrOverflow)).To(BeTrue())
	})

	It("should surface overflow on subtraction", func() {
		_, err := Time(math.MaxInt64).Sub(Time(-1))

		Expect(errors.Is(err, ErrOverflow)).To(BeTrue())
	})

	It("should order totally", func() {
		Expect(Time(1).Before(Time(2))).To(BeTrue())
		Expect(Time(2).After(Time(1))).To(BeTrue())
		Expect(Time(2).Equal(Time(2))).To(BeTrue())
	})
})

var _ = Describe("Resolution", func() {
	It("should convert seconds to ticks", func() {
		d, err := Nanosecond.Seconds(1.5)

		Expect(err).ToNot(HaveOccurred())
		Expect(d).To(Equal(Duration(1500000000)))
	})

	It("should reject non-finite second counts", func() {
		_, err := Nanosecond.Seconds(math.Inf(1))
		Expect(errors.Is(err, ErrOverflow)).To(BeTrue())

		_, err = Nanosecond.Seconds(math.NaN())
		Expect(errors.Is(err, ErrOverflow)).To(BeTrue())
	})

	It("should reject second counts beyond the tick range", func() {
		_, err := Nanosecond.Seconds(1e30)

		Expect(errors.Is(err, ErrOverflow)).To(BeTrue())
	})

	It("should scale fixed units to a finer resolution", func() {
		d, err := Nanosecond.Milliseconds(3)

		Expect(err).ToNot(HaveOccurred())
		Expect(d).To(Equal(Duration(3000000)))
	})

	It("should truncate toward zero at a coarser resolution", func() {
		d, err := Millisecond.Nanoseconds(1999999)

		Expect(err).ToNot(HaveOccurred())
		Expect(d).To(Equal(Duration(1)))
	})

	It("should surface overflow when scaling", func() {
		_, err := Picosecond.Milliseconds(math.MaxInt64 / 2)

		Expect(errors.Is(err, ErrOverflow)).To(BeTrue())
	})

	It("should convert standard durations", func() {
		d, err := Nanosecond.FromStd(2 * stdtime.Millisecond)

		Expect(err).ToNot(HaveOccurred())
		Expect(d).To(Equal(Duration(2000000)))
	})

	It("should convert ticks back to seconds", func() {
		Expect(Nanosecond.ToSeconds(Time(1500000000))).
			To(BeNumerically("~", 1.5, 1e-12))
		Expect(Microsecond.DurationToSeconds(Duration(250))).
			To(BeNumerically("~", 0.00025, 1e-12))
	})
})
