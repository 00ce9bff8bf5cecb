package depletion_test

import (
	"context"
	"io"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/transmute/internal/config"
	"github.com/san-kum/transmute/internal/depletion"
	"github.com/san-kum/transmute/internal/dynamo"
	"github.com/san-kum/transmute/internal/isotope"
	"github.com/san-kum/transmute/internal/transmute"
	"github.com/san-kum/transmute/internal/units"
	"github.com/san-kum/transmute/internal/universe"
)

var quiet = depletion.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

func total(comp map[isotope.ID]float64) float64 {
	s := 0.0
	for _, v := range comp {
		s += v
	}
	return s
}

type stepCounter struct {
	steps int
	maxT  float64
}

func (c *stepCounter) OnStep(x dynamo.State, t, dt float64) {
	c.steps++
	c.maxT = math.Max(c.maxT, t)
}

var _ = Describe("Registry", func() {
	It("lists the adaptive integrators", func() {
		r := depletion.NewRegistry()
		Expect(r.ListIntegrators()).To(Equal([]string{"rk45", "rosenbrock"}))

		_, err := r.GetIntegrator("euler")
		Expect(err).To(MatchError(ContainSubstring("unknown integrator")))
	})

	It("hands out fresh metrics", func() {
		r := depletion.NewRegistry()
		a, b := r.DefaultMetrics(), r.DefaultMetrics()
		Expect(a).To(HaveLen(3))
		Expect(a[0]).NotTo(BeIdenticalTo(b[0]))
	})
})

var _ = Describe("Run", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("tritium", func() {
		It("decays to helium-3 and conserves the inventory", func() {
			cfg := config.GetPreset("tritium")
			out, err := depletion.Run(ctx, cfg, quiet)
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Universe.Len()).To(Equal(2))
			Expect(out.Snapshots).To(HaveLen(1))

			final := out.Final()
			h3, he3 := isotope.MustParse("H3"), isotope.MustParse("He3")
			want := math.Exp(-math.Ln2 * 10 / 12.32)
			Expect(final[h3]).To(BeNumerically("~", want, 1e-6))
			Expect(final[h3]).To(BeNumerically("~", 0.5697, 1e-4))
			Expect(final[he3]).To(BeNumerically("~", 0.4303, 1e-4))
			Expect(total(final)).To(BeNumerically("~", 1.0, 1e-10))

			accepted, _ := out.Steps()
			Expect(accepted).To(BeNumerically(">", 0))
			Expect(out.Snapshots[0].Result.Metrics).To(HaveKeyWithValue("negativity", 0.0))
		})

		It("gives the same answer with the explicit integrator", func() {
			cfg := config.GetPreset("tritium")
			cfg.Integrator = "rk45"
			out, err := depletion.Run(ctx, cfg, quiet)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Final()[isotope.MustParse("H3")]).To(BeNumerically("~", math.Exp(-math.Ln2*10/12.32), 1e-6))
		})

		It("reports every accepted step to observers", func() {
			counter := &stepCounter{}
			out, err := depletion.Run(ctx, config.GetPreset("tritium"), quiet, depletion.WithObserver(counter))
			Expect(err).NotTo(HaveOccurred())

			accepted, _ := out.Steps()
			Expect(counter.steps).To(Equal(accepted))
			Expect(counter.maxT).To(BeNumerically("~", 10*units.Year, 1e-3))
		})
	})

	Context("californium-249", func() {
		It("follows the chain to bismuth-209 and matches the closed form", func() {
			p, err := depletion.Prepare(config.GetPreset("cf249"), quiet)
			Expect(err).NotTo(HaveOccurred())

			out, err := p.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Snapshots).To(HaveLen(3))
			Expect(out.Snapshots[0].Time).To(Equal(10 * units.Year))
			Expect(out.Snapshots[2].Time).To(Equal(1000 * units.Year))

			cf249 := isotope.MustParse("Cf249")
			exact, err := p.Library.UnitDecay(cf249, 1000*units.Year, nil)
			Expect(err).NotTo(HaveOccurred())

			final := out.Final()
			for _, name := range []string{"Cf249", "Cm245", "Pu241", "Am241", "Np237", "Bi209"} {
				id := isotope.MustParse(name)
				Expect(final[id]).To(BeNumerically("~", exact[id], 1e-4), name)
			}
			Expect(total(final)).To(BeNumerically("~", 1.0, 1e-7))
			Expect(final[cf249]).To(BeNumerically("~", math.Pow(2, -1000.0/351), 1e-5))
		})
	})

	Context("neutron capture", func() {
		It("depletes the target exponentially", func() {
			out, err := depletion.Run(ctx, config.GetPreset("capture"), quiet)
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Universe.IDs()).To(Equal([]isotope.ID{
				isotope.MustParse("Co59"), isotope.MustParse("Co60"), isotope.MustParse("Ni60"),
			}))
			final := out.Final()
			Expect(final[isotope.MustParse("Co59")]).To(BeNumerically("~", math.Exp(-1e-9*units.Year), 1e-7))
			Expect(final[isotope.MustParse("Co60")]).To(BeNumerically(">", 0))
			Expect(final[isotope.MustParse("Ni60")]).To(BeNumerically(">", 0))
			Expect(total(final)).To(BeNumerically("~", 1.0, 1e-10))
		})
	})

	Context("neutron-induced fission", func() {
		It("spreads the fission rate over the yields", func() {
			out, err := depletion.Run(ctx, config.GetPreset("fission"), quiet)
			Expect(err).NotTo(HaveOccurred())

			final := out.Final()
			fissioned := 1 - math.Exp(-1e-8*30*units.Day)
			Expect(final[isotope.MustParse("U235")]).To(BeNumerically("~", 1-fissioned, 1e-7))

			sr90 := final[isotope.MustParse("Sr90")] + final[isotope.MustParse("Y90")] + final[isotope.MustParse("Zr90")]
			Expect(sr90).To(BeNumerically("~", 0.0578*fissioned, 1e-7))
			Expect(final).To(HaveKey(isotope.MustParse("Ce140")))
		})
	})

	Context("spontaneous fission in the default universe", func() {
		It("tracks fragments and the alpha daughter", func() {
			out, err := depletion.Run(ctx, config.GetPreset("cf252"), quiet)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Universe.Len()).To(BeNumerically(">", 3000))

			decayed := 1 - math.Pow(2, -5/2.645)
			final := out.Final()
			Expect(final[isotope.MustParse("Cm248")]).To(BeNumerically("~", 0.96908*decayed, 1e-4))
			Expect(final[isotope.MustParse("Xe138")]).To(BeNumerically("~", 0.03092*0.0429*decayed, 1e-6))
		})
	})

	Context("unit responses", func() {
		It("agree with the closed-form decay", func() {
			p, err := depletion.Prepare(config.GetPreset("cs137"), quiet)
			Expect(err).NotTo(HaveOccurred())

			ids := []isotope.ID{isotope.MustParse("Cs137"), isotope.MustParse("Ba137m")}
			dt := 30.08 * units.Year
			got, err := p.UnitResponses(ctx, ids, dt)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))

			for _, id := range ids {
				exact, err := p.Library.UnitDecay(id, dt, nil)
				Expect(err).NotTo(HaveOccurred())
				for x, v := range exact {
					Expect(got[id][x]).To(BeNumerically("~", v, 1e-5), "%s -> %s", id, x)
				}
			}
			Expect(got[ids[0]][ids[0]]).To(BeNumerically("~", 0.5, 1e-5))

			_, err = p.UnitResponses(ctx, []isotope.ID{isotope.MustParse("Fe56")}, dt)
			Expect(err).To(MatchError(universe.ErrNotInUniverse))
		})
	})

	Context("faults", func() {
		It("rejects an unknown integrator", func() {
			cfg := config.GetPreset("tritium")
			cfg.Integrator = "leapfrog"
			_, err := depletion.Run(ctx, cfg, quiet)
			Expect(err).To(MatchError(ContainSubstring("unknown integrator")))
		})

		It("reports a reaction parent outside the universe", func() {
			cfg := config.GetPreset("tritium")
			cfg.Universe = config.UniverseDefault
			cfg.Reactions = []config.ReactionConfig{{Parent: "Fm260", Kind: transmute.Capture, Rate: 1e-9}}
			_, err := depletion.Prepare(cfg, quiet)
			Expect(err).To(MatchError(universe.ErrNotInUniverse))
		})

		It("needs yields for an implicit fission channel", func() {
			cfg := config.GetPreset("fission")
			cfg.Fissions[0].Parent = "Pu239"
			_, err := depletion.Prepare(cfg, quiet)
			Expect(err).To(MatchError(depletion.ErrNoYields))
		})

		It("rejects an invalid config before loading data", func() {
			cfg := config.GetPreset("tritium")
			cfg.Initial = nil
			_, err := depletion.Prepare(cfg, quiet)
			Expect(err).To(MatchError(config.ErrInvalid))
		})

		It("stops when the context is canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := depletion.Run(canceled, config.GetPreset("tritium"), quiet)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
