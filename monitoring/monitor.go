// Package monitoring turns a running simulation into a small web server so
// it can be observed and controlled from outside the process.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/wavelab/wavesim/sim"
)

// A Node is a simulated entity registered with the monitor. The monitor
// only needs a name for lookup and the entity itself for inspection.
type Node struct {
	Name    string
	Context sim.ContextID
	Entity  any
}

// Monitor can turn a simulation into a server and allows external
// monitoring and controlling of the simulation.
type Monitor struct {
	engine     sim.Engine
	portNumber int
	url        string

	nodesLock sync.Mutex
	nodes     []Node

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.engine = e
}

// RegisterNode registers a simulated entity to be monitored.
func (m *Monitor) RegisterNode(n Node) {
	m.nodesLock.Lock()
	defer m.nodesLock.Unlock()

	m.nodes = append(m.nodes, n)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars)-1)
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// StartServer starts the monitor as a web server with a custom port if
// wanted.
func (m *Monitor) StartServer() {
	r := m.router()
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	port := listener.Addr().(*net.TCPAddr).Port
	m.url = fmt.Sprintf("http://localhost:%d", port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

// OpenDashboard opens the monitoring page in the default browser. The
// server must have been started first.
func (m *Monitor) OpenDashboard() error {
	if m.url == "" {
		return fmt.Errorf("monitoring server is not started")
	}

	return browser.OpenURL(m.url + "/api/now")
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/run", m.run)
	r.HandleFunc("/api/stop", m.stop)
	r.HandleFunc("/api/list_nodes", m.listNodes)
	r.HandleFunc("/api/node/{name}", m.listNodeDetails)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.engine.Now()
	fmt.Fprintf(w, "{\"now\":%.10f}",
		m.engine.Resolution().ToSeconds(now))
}

func (m *Monitor) run(_ http.ResponseWriter, _ *http.Request) {
	go func() {
		err := m.engine.Run()
		if err != nil {
			panic(err)
		}
	}()
}

func (m *Monitor) stop(w http.ResponseWriter, _ *http.Request) {
	m.engine.Stop()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) listNodes(w http.ResponseWriter, _ *http.Request) {
	m.nodesLock.Lock()
	defer m.nodesLock.Unlock()

	fmt.Fprint(w, "[")
	for i, n := range m.nodes {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "{\"name\":\"%s\",\"context\":%d}",
			n.Name, n.Context)
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) listNodeDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	node, ok := m.findNodeOr404(w, name)
	if !ok {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(node.Entity)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) findNodeOr404(
	w http.ResponseWriter,
	name string,
) (Node, bool) {
	m.nodesLock.Lock()
	defer m.nodesLock.Unlock()

	for _, n := range m.nodes {
		if n.Name == name {
			return n, true
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Node not found"))
	dieOnErr(err)

	return Node{}, false
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bytes, err := json.Marshal(m.progressBars)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
