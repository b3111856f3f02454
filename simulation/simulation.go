package simulation

import (
	"github.com/wavelab/wavesim/datarecording"
	"github.com/wavelab/wavesim/monitoring"
	"github.com/wavelab/wavesim/sim"
)

// A Simulation provides the services required to define a simulation.
type Simulation struct {
	id     string
	engine *sim.Simulator

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	eventTracer  *datarecording.EventTracer

	nodes         []monitoring.Node
	nodeNameIndex map[string]int
	nextContext   sim.ContextID
}

// ID returns the unique identifier of the simulation run.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() *sim.Simulator {
	return s.engine
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation. It is nil when the
// simulation is built without monitoring.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// RegisterNode registers a named simulated entity and assigns it a context.
// Events scheduled under the returned context are attributed to the node.
func (s *Simulation) RegisterNode(name string, entity any) sim.ContextID {
	if _, ok := s.nodeNameIndex[name]; ok {
		panic("node " + name + " already registered")
	}

	ctx := s.nextContext
	s.nextContext++

	node := monitoring.Node{
		Name:    name,
		Context: ctx,
		Entity:  entity,
	}

	s.nodes = append(s.nodes, node)
	s.nodeNameIndex[name] = len(s.nodes) - 1

	if s.monitor != nil {
		s.monitor.RegisterNode(node)
	}

	return ctx
}

// GetNodeByName returns the node with the given name.
func (s *Simulation) GetNodeByName(name string) monitoring.Node {
	index, ok := s.nodeNameIndex[name]
	if !ok {
		panic("node " + name + " not registered")
	}

	return s.nodes[index]
}

// ContextOf returns the context assigned to the named node.
func (s *Simulation) ContextOf(name string) sim.ContextID {
	return s.GetNodeByName(name).Context
}

// Terminate terminates the simulation. Destroy-time events run and the
// recording database is flushed to disk.
func (s *Simulation) Terminate() error {
	err := s.engine.Destroy()
	s.dataRecorder.Close()

	return err
}
