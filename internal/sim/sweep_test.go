package sim_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/modsim/internal/models"
	"github.com/san-kum/modsim/internal/quantity"
	"github.com/san-kum/modsim/internal/sim"
)

var _ = Describe("Sweep", func() {
	It("runs one simulation per override, in order", func() {
		s := sim.New(models.Default())
		overrides := []*quantity.Map{
			quantity.Of("decay_rate", 0.5),
			quantity.Of("decay_rate", 0.25),
			quantity.Of("decay_rate", 0),
		}

		results, err := s.Sweep(context.Background(), decayInput("euler"), overrides)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		Expect(results[0].Final()["pool"]).To(Equal(0.5))
		Expect(results[1].Final()["pool"]).To(Equal(1.6875))
		Expect(results[2].Final()["pool"]).To(Equal(4.0))
	})

	It("leaves the base parameters untouched", func() {
		s := sim.New(models.Default())
		base := decayInput("euler")
		_, err := s.Sweep(context.Background(), base, []*quantity.Map{quantity.Of("decay_rate", 1)})
		Expect(err).NotTo(HaveOccurred())

		v, _ := base.Parameters.Get("decay_rate")
		Expect(v).To(Equal(0.5))
	})

	It("fails when any run fails", func() {
		s := sim.New(models.Default())
		base := decayInput("euler")
		base.Integrator = "leapfrog"
		_, err := s.Sweep(context.Background(), base, []*quantity.Map{quantity.New()})
		Expect(err).To(HaveOccurred())
	})
})
