package sim_test

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ballpit/internal/diag"
	"github.com/san-kum/ballpit/internal/physics"
	"github.com/san-kum/ballpit/internal/sim"
)

func noop(physics.Vector, *sim.Body) {}

var _ = Describe("Engine", func() {
	var (
		cfg sim.Config
		eng *sim.Engine
	)

	BeforeEach(func() {
		cfg = sim.DefaultConfig()
		cfg.Tick = 5 * time.Millisecond
		cfg.Seed = 42
		eng = nil
	})

	AfterEach(func() {
		if eng != nil && !eng.Disposed() {
			Expect(eng.Dispose()).To(Succeed())
		}
	})

	build := func(opts ...sim.Option) *sim.Engine {
		e, err := sim.New(cfg, opts...)
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	Describe("New", func() {
		It("rejects an invalid configuration", func() {
			cfg.Tick = 0
			_, err := sim.New(cfg)
			Expect(err).To(MatchError(sim.ErrInvalidArgument))

			cfg = sim.DefaultConfig()
			cfg.Strategy = "sideways"
			_, err = sim.New(cfg)
			Expect(err).To(MatchError(sim.ErrInvalidArgument))

			cfg = sim.DefaultConfig()
			cfg.Inset = 1
			_, err = sim.New(cfg)
			Expect(err).To(MatchError(sim.ErrInvalidArgument))
		})
	})

	Describe("Start", func() {
		It("invokes the callback exactly once per body", func() {
			eng = build()
			seen := map[int]bool{}
			err := eng.Start(10, func(pos physics.Vector, b *sim.Body) {
				Expect(seen).NotTo(HaveKey(b.ID()))
				seen[b.ID()] = true
				Expect(b.Position()).To(Equal(pos))
				Expect(cfg.Arena.Contains(pos, b.Radius())).To(BeTrue())
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(HaveLen(10))
			Expect(eng.Len()).To(Equal(10))
		})

		It("places every pair at least the minimum separation apart", func() {
			eng = build()
			var positions []physics.Vector
			Expect(eng.Start(10, func(pos physics.Vector, _ *sim.Body) {
				positions = append(positions, pos)
			})).To(Succeed())

			pairs := 0
			for i := range positions {
				for j := i + 1; j < len(positions); j++ {
					pairs++
					Expect(positions[i].Dist(positions[j])).To(BeNumerically(">=", 20))
				}
			}
			Expect(pairs).To(Equal(45))
		})

		It("reports a body before it joins the set", func() {
			eng = build()
			Expect(eng.Start(5, func(_ physics.Vector, b *sim.Body) {
				Expect(eng.Len()).To(Equal(b.ID()))
			})).To(Succeed())
		})

		It("lets the callback read the engine while spawning", func() {
			eng = build()
			var seen []int
			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				done <- eng.Start(3, func(_ physics.Vector, b *sim.Body) {
					snap, err := eng.Snapshot()
					Expect(err).NotTo(HaveOccurred())
					Expect(eng.Disposed()).To(BeFalse())
					Expect(eng.Stats().Bodies).To(Equal(b.ID()))
					seen = append(seen, len(snap))
				})
			}()

			var err error
			Eventually(done).WithTimeout(2 * time.Second).Should(Receive(&err))
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal([]int{0, 1, 2}))
		})

		It("accepts zero bodies", func() {
			eng = build()
			called := false
			Expect(eng.Start(0, func(physics.Vector, *sim.Body) { called = true })).To(Succeed())
			Expect(called).To(BeFalse())
			Expect(eng.Len()).To(BeZero())
		})

		It("rejects a negative count and a nil callback", func() {
			eng = build()
			Expect(eng.Start(-1, noop)).To(MatchError(sim.ErrInvalidArgument))
			Expect(eng.Start(3, nil)).To(MatchError(sim.ErrInvalidArgument))
			Expect(eng.Len()).To(BeZero())
		})

		It("fails instead of hanging when the arena is overfilled", func() {
			cfg.MaxAttempts = 200
			eng = build()
			calls := 0
			err := eng.Start(1000, func(physics.Vector, *sim.Body) { calls++ })
			Expect(err).To(MatchError(sim.ErrSpawnInfeasible))
			Expect(calls).To(BeZero())
			Expect(eng.Len()).To(BeZero())
		})

		It("keeps separation from bodies spawned earlier", func() {
			cfg.Tick = time.Hour
			eng = build()
			Expect(eng.Start(5, noop)).To(Succeed())
			Expect(eng.Start(5, noop)).To(Succeed())

			snap, err := eng.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(snap).To(HaveLen(10))
			for i := range snap {
				Expect(snap[i].ID).To(Equal(i))
				for j := i + 1; j < len(snap); j++ {
					Expect(snap[i].Position.Dist(snap[j].Position)).To(BeNumerically(">=", 20))
				}
			}
		})
	})

	Describe("Dispose", func() {
		It("succeeds once and then reports AlreadyDisposed", func() {
			eng = build()
			Expect(eng.Start(3, noop)).To(Succeed())
			Expect(eng.Dispose()).To(Succeed())
			Expect(eng.Disposed()).To(BeTrue())
			Expect(eng.Len()).To(BeZero())

			Expect(eng.Dispose()).To(MatchError(sim.ErrAlreadyDisposed))
			Expect(eng.Start(0, noop)).To(MatchError(sim.ErrAlreadyDisposed))
			_, err := eng.Snapshot()
			Expect(err).To(MatchError(sim.ErrAlreadyDisposed))
		})

		It("keeps the final counters after releasing the set", func() {
			eng = build()
			Expect(eng.Start(8, noop)).To(Succeed())
			Eventually(func() uint64 { return eng.Stats().Steps }).WithTimeout(5 * time.Second).Should(BeNumerically(">", 0))

			Expect(eng.Dispose()).To(Succeed())
			Expect(eng.Len()).To(BeZero())
			st := eng.Stats()
			Expect(st.Bodies).To(Equal(8))
			Expect(st.Steps).To(BeNumerically(">", 0))
		})

		It("works on an engine that never started", func() {
			eng = build()
			Expect(eng.Dispose()).To(Succeed())
		})

		It("returns within a tick period", func() {
			cfg.Strategy = sim.PerBody
			cfg.Tick = 20 * time.Millisecond
			eng = build()
			Expect(eng.Start(20, noop)).To(Succeed())
			time.Sleep(50 * time.Millisecond)

			start := time.Now()
			Expect(eng.Dispose()).To(Succeed())
			Expect(time.Since(start)).To(BeNumerically("<", cfg.Tick+50*time.Millisecond))
		})
	})

	DescribeTable("drives bodies and notifies observers",
		func(strategy sim.Strategy) {
			cfg.Strategy = strategy
			var updates, outside atomic.Int64
			eng = build(sim.WithPositionObserver(func(b *sim.Body, pos physics.Vector) {
				updates.Add(1)
				if !cfg.Arena.Contains(pos, b.Radius()) {
					outside.Add(1)
				}
			}))
			Expect(eng.Start(12, noop)).To(Succeed())

			Eventually(updates.Load).WithTimeout(5 * time.Second).Should(BeNumerically(">=", 12*20))
			Expect(outside.Load()).To(BeZero())
			Expect(eng.Stats().Steps).To(BeNumerically(">", 0))

			snap, err := eng.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			for _, st := range snap {
				Expect(cfg.Arena.Contains(st.Position, st.Radius)).To(BeTrue())
			}
		},
		Entry("shared clock", sim.SharedClock),
		Entry("per-body drivers", sim.PerBody),
	)

	It("keeps 50 per-body drivers in bounds for 1000 ticks", func() {
		cfg.Strategy = sim.PerBody
		cfg.Tick = 200 * time.Microsecond
		cfg.Jitter = 100 * time.Microsecond
		cfg.Inset = 20
		cfg.MaxSpeed = 6

		var outside atomic.Int64
		eng = build(sim.WithPositionObserver(func(b *sim.Body, pos physics.Vector) {
			if !cfg.Arena.Contains(pos, b.Radius()) {
				outside.Add(1)
			}
		}))
		Expect(eng.Start(50, noop)).To(Succeed())

		Eventually(func() uint64 {
			least := ^uint64(0)
			for _, b := range eng.Bodies() {
				least = min(least, b.Ticks())
			}
			return least
		}).WithTimeout(90 * time.Second).WithPolling(20 * time.Millisecond).Should(BeNumerically(">=", 1000))

		snap, err := eng.Snapshot()
		Expect(err).NotTo(HaveOccurred())
		for _, st := range snap {
			Expect(cfg.Arena.Contains(st.Position, st.Radius)).To(BeTrue())
		}
		Expect(eng.Dispose()).To(Succeed())
		Expect(outside.Load()).To(BeZero())
	})

	DescribeTable("surfaces a driver fault at teardown",
		func(strategy sim.Strategy) {
			cfg.Strategy = strategy
			faulted := make(chan struct{})
			var once sync.Once
			eng = build(sim.WithPositionObserver(func(b *sim.Body, _ physics.Vector) {
				if b.ID() == 1 {
					once.Do(func() { close(faulted) })
					panic("observer exploded")
				}
			}))
			Expect(eng.Start(3, noop)).To(Succeed())
			Eventually(faulted).WithTimeout(5 * time.Second).Should(BeClosed())

			err := eng.Dispose()
			Expect(err).To(MatchError(sim.ErrSimulationFault))
			var fault *sim.FaultError
			Expect(errors.As(err, &fault)).To(BeTrue())
			Expect(fault.Error()).To(ContainSubstring("observer exploded"))
		},
		Entry("shared clock", sim.SharedClock),
		Entry("per-body drivers", sim.PerBody),
	)

	It("writes one diagnostics line per step and closes the sink after the drivers", func() {
		path := filepath.Join(GinkgoT().TempDir(), "diag.log")
		sink, err := diag.Open(path, 4096, nil)
		Expect(err).NotTo(HaveOccurred())

		cfg.Strategy = sim.PerBody
		cfg.Tick = time.Millisecond
		eng = build(sim.WithDiagnostics(sink))
		Expect(eng.Start(4, noop)).To(Succeed())
		Eventually(func() uint64 { return eng.Stats().Steps }).WithTimeout(5 * time.Second).Should(BeNumerically(">=", 40))
		Expect(eng.Dispose()).To(Succeed())

		Expect(sink.Emit("late")).To(BeFalse())

		f, err := os.Open(path)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		lines := 0
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			Expect(strings.HasPrefix(sc.Text(), "tick=")).To(BeTrue(), sc.Text())
			Expect(sc.Text()).To(ContainSubstring(" body="))
			lines++
		}
		Expect(lines).To(BeNumerically(">", 0))
		Expect(uint64(lines)).To(Equal(sink.Written()))
	})
})

var _ = Describe("ChannelObserver", func() {
	It("hands updates to a single consumer without blocking", func() {
		obs := sim.NewChannelObserver(2)
		b := sim.NewBody(7, 10, physics.Blue, physics.Vec(50, 50), physics.Vec(0, 0))

		for i := 0; i < 5; i++ {
			obs.OnPosition(b, physics.Vec(float64(i), 1))
		}
		Expect(obs.Received()).To(Equal(uint64(5)))
		Expect(obs.Dropped()).To(Equal(uint64(3)))

		u := <-obs.Updates()
		Expect(u.BodyID).To(Equal(7))
		Expect(u.Color).To(Equal(physics.Blue))
		Expect(u.Position).To(Equal(physics.Vec(0, 1)))
	})
})
