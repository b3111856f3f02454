package simulation

import (
	"github.com/rs/xid"
	"github.com/wavelab/wavesim/datarecording"
	"github.com/wavelab/wavesim/monitoring"
	"github.com/wavelab/wavesim/sim"
	"github.com/wavelab/wavesim/vtime"
)

// Builder can be used to build a simulation.
type Builder struct {
	resolution     vtime.Resolution
	monitorOn      bool
	monitorPort    int
	tracingOn      bool
	outputFileName string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		resolution: vtime.Nanosecond,
		monitorOn:  true,
		tracingOn:  true,
	}
}

// WithResolution sets the number of ticks per simulated second.
func (b Builder) WithResolution(r vtime.Resolution) Builder {
	b.resolution = r
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithoutEventTracing disables recording of dispatched events.
func (b Builder) WithoutEventTracing() Builder {
	b.tracingOn = false
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if b.resolution <= 0 {
		panic("resolution must be positive")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		nodeNameIndex: make(map[string]int),
	}

	s.id = xid.New().String()

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "wavesim_" + s.id
	}
	s.dataRecorder = datarecording.New(outputPath)

	s.engine = sim.NewSimulatorWithResolution(b.resolution)

	if b.tracingOn {
		s.eventTracer = datarecording.NewEventTracer(
			s.dataRecorder, b.resolution)
		s.engine.AcceptHook(s.eventTracer)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterEngine(s.engine)
		s.monitor.StartServer()
	}

	return s
}
