package simulation

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/rs/xid"
	"gonum.org/v1/gonum/mat"

	"github.com/blofeld/blofeld/config"
	"github.com/blofeld/blofeld/datarecording"
	"github.com/blofeld/blofeld/disease"
	"github.com/blofeld/blofeld/engine"
	"github.com/blofeld/blofeld/metrics"
	"github.com/blofeld/blofeld/monitoring"
	"github.com/blofeld/blofeld/population"
	"github.com/blofeld/blofeld/regulation"
	"github.com/blofeld/blofeld/registry"
	"github.com/blofeld/blofeld/sim"
	"github.com/blofeld/blofeld/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	cfg    *config.Config
	logger *log.Logger
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg: config.New(),
	}
}

// WithConfig sets the configuration of the run.
func (b Builder) WithConfig(cfg *config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// Build creates the population, the disease modules and the engine described
// by the configuration, and attaches the tracers.
func (b Builder) Build() (*Simulation, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Simulation{
		id:     xid.New().String(),
		cfg:    b.cfg,
		logger: logger,
		stop: engine.StopCondition{
			MaxTime:   sim.VTimeInSec(b.cfg.MaxTime),
			MaxRounds: b.cfg.MaxRounds,
		},
	}

	if err := b.buildPopulation(s); err != nil {
		return nil, err
	}

	if err := b.buildModules(s); err != nil {
		return nil, err
	}

	b.buildEngine(s)
	b.attachTracers(s)

	if err := b.startMonitor(s); err != nil {
		s.Terminate()
		return nil, err
	}

	return s, nil
}

func (b Builder) buildPopulation(s *Simulation) error {
	s.population = population.New()
	s.model = disease.NewModel(b.cfg.Disease, len(b.cfg.Herds))

	for _, herd := range b.cfg.Herds {
		h := s.population.AddHerd(herd.Name, herd.Size)

		stages, err := herd.InitialStages()
		if err != nil {
			return err
		}

		members := s.population.Members(h)
		if err := s.model.Seed(h, members, stages); err != nil {
			return err
		}
	}

	return b.removeDead(s)
}

// removeDead takes individuals seeded as dead from the disease out of the
// population.
func (b Builder) removeDead(s *Simulation) error {
	var dead []sim.Individual

	for _, i := range s.population.Individuals() {
		if stage, _ := s.model.Stage(i); !stage.Living() {
			dead = append(dead, i)
		}
	}

	for _, i := range dead {
		if err := s.population.Remove(i); err != nil {
			return err
		}
	}

	return nil
}

func (b Builder) buildModules(s *Simulation) error {
	s.registry = registry.New()

	factories := []sim.Factory{
		disease.TransmissionFactory(s.model),
		disease.TransitionsFactory(s.model, disease.NewProgression),
		disease.TransitionsFactory(s.model, disease.NewImmunity),
		disease.TransitionsFactory(s.model, disease.NewVaccination),
		disease.MortalityFactory(s.model, s.population),
	}

	if len(b.cfg.Contacts) > 0 {
		spillover, err := disease.SpilloverFactory(s.model, contactMatrix(b.cfg.Contacts))
		if err != nil {
			return err
		}

		factories = append(factories, spillover)
	}

	for _, f := range factories {
		if _, err := s.registry.RegisterFrom(f, s.model.NumHerds()); err != nil {
			return err
		}
	}

	return nil
}

func contactMatrix(rows [][]float64) *mat.Dense {
	n := len(rows)
	data := make([]float64, 0, n*n)

	for _, row := range rows {
		data = append(data, row...)
	}

	return mat.NewDense(n, n, data)
}

func (b Builder) buildEngine(s *Simulation) {
	eb := engine.MakeBuilder().
		WithRegistry(s.registry).
		WithPopulation(s.population).
		WithParallelism(b.cfg.Parallelism).
		WithCapacity(s.population.Len()).
		WithLogger(s.logger)

	if b.cfg.Seed != 0 {
		eb = eb.WithSeed(b.cfg.Seed)
	}

	s.engine = eb.Build()
}

func (b Builder) attachTracers(s *Simulation) {
	s.counter = tracing.NewOutcomeCounter()
	s.engine.AcceptHook(s.counter)

	s.metrics = metrics.NewCollector()
	s.engine.AcceptHook(s.metrics)

	s.engine.AcceptHook(tracing.NewEventLogger(s.logger))

	if b.cfg.Recording.Enabled {
		s.dataRecorder = datarecording.New(b.cfg.Recording.Path)
		s.eventRecorder = tracing.NewEventRecorder(s.dataRecorder, s.engine.Seed())
		s.engine.AcceptHook(s.eventRecorder)
	}

	if b.cfg.Culling.Enabled {
		s.activator = regulation.NewActivator(
			s.registry,
			regulation.CullingFactory(
				s.model, s.population, s.registry, b.cfg.Culling.Detection),
			b.cfg.Culling.Threshold,
		).WithLogger(s.logger)
		s.engine.AcceptHook(s.activator)
	}
}

func (b Builder) startMonitor(s *Simulation) error {
	if !b.cfg.Monitor.Enabled {
		return nil
	}

	s.monitor = monitoring.NewMonitor().
		WithLogger(s.logger).
		WithPortNumber(b.cfg.Monitor.Port)
	s.monitor.RegisterEngine(s.engine)
	s.monitor.RegisterRegistry(s.registry)
	s.monitor.RegisterMetrics(s.metrics.Handler())

	total := uint64(1000)
	if s.stop.MaxTime == 0 {
		total = s.stop.MaxRounds
	}

	s.progress = s.monitor.CreateProgressBar("simulation", total)
	s.engine.AcceptHook(monitoring.NewProgressHook(s.progress, s.stop.MaxTime))

	url, err := s.monitor.StartServer()
	if err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}

	if b.cfg.Monitor.OpenBrowser {
		s.monitor.OpenBrowser(url)
	}

	return nil
}
