// Package monitoring turns a running simulation into a web server that can be
// inspected and controlled.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/blofeld/blofeld/registry"
	"github.com/blofeld/blofeld/sim"
)

// A Controller is an engine that can be paused and observed.
type Controller interface {
	Pause()
	Continue()
	IsPaused() bool
	CurrentTime() sim.VTimeInSec
	CurrentRound() uint64
}

// Monitor serves the state of a simulation over HTTP.
type Monitor struct {
	engine     Controller
	registry   *registry.Registry
	metrics    http.Handler
	portNumber int
	logger     *log.Logger

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	// controlLock serializes pausing requests with module inspection.
	controlLock sync.Mutex

	server *http.Server
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		logger: log.New(io.Discard),
	}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.Warn("port not allowed, using a random port",
			"port", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithLogger sets the logger.
func (m *Monitor) WithLogger(l *log.Logger) *Monitor {
	m.logger = l
	return m
}

// RegisterEngine registers the engine that runs the simulation.
func (m *Monitor) RegisterEngine(e Controller) {
	m.engine = e
}

// RegisterRegistry registers the module registry to be inspected.
func (m *Monitor) RegisterRegistry(r *registry.Registry) {
	m.registry = r
}

// RegisterMetrics registers the handler that serves /metrics.
func (m *Monitor) RegisterMetrics(h http.Handler) {
	m.metrics = h
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the list.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine).Methods(http.MethodPost)
	r.HandleFunc("/api/continue", m.continueEngine).Methods(http.MethodPost)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/modules", m.listModules)
	r.HandleFunc("/api/module/{id}", m.moduleDetails)
	r.HandleFunc("/api/field/{json}", m.fieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	if m.metrics != nil {
		r.Handle("/metrics", m.metrics)
	}

	return r
}

// StartServer starts serving in the background and returns the URL of the
// server.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", fmt.Errorf("monitor: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("monitor stopped", "err", err)
		}
	}()

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	return url, nil
}

// OpenBrowser opens the URL in the default browser.
func (m *Monitor) OpenBrowser(url string) {
	if err := browser.OpenURL(url); err != nil {
		m.logger.Warn("cannot open browser", "url", url, "err", err)
	}
}

// Shutdown stops the server.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.controlLock.Lock()
	defer m.controlLock.Unlock()

	m.engine.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.controlLock.Lock()
	defer m.controlLock.Unlock()

	m.engine.Continue()
	w.WriteHeader(http.StatusOK)
}

// whilePaused runs inspect with the engine between rounds. An engine that was
// running is continued afterwards.
func (m *Monitor) whilePaused(inspect func()) {
	m.controlLock.Lock()
	defer m.controlLock.Unlock()

	if m.engine == nil || m.engine.IsPaused() {
		inspect()
		return
	}

	m.engine.Pause()
	defer m.engine.Continue()

	inspect()
}

type nowRsp struct {
	Now    float64 `json:"now"`
	Round  uint64  `json:"round"`
	Paused bool    `json:"paused"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, nowRsp{
		Now:    float64(m.engine.CurrentTime()),
		Round:  m.engine.CurrentRound(),
		Paused: m.engine.IsPaused(),
	})
}

func (m *Monitor) listModules(w http.ResponseWriter, _ *http.Request) {
	ids := []sim.ModuleID{}
	for mod := range m.registry.Modules() {
		ids = append(ids, mod.ID())
	}

	m.writeJSON(w, ids)
}

func (m *Monitor) moduleDetails(w http.ResponseWriter, r *http.Request) {
	mod := m.findModuleOr404(w, sim.ModuleID(mux.Vars(r)["id"]))
	if mod == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(mod)
	serializer.SetMaxDepth(1)

	m.whilePaused(func() {
		if err := serializer.Serialize(w); err != nil {
			m.fail(w, err)
		}
	})
}

type fieldReq struct {
	ModuleID  string `json:"module_id,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) fieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	mod := m.findModuleOr404(w, sim.ModuleID(req.ModuleID))
	if mod == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(mod)
	serializer.SetMaxDepth(1)

	m.whilePaused(func() {
		err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := serializer.Serialize(w); err != nil {
			m.fail(w, err)
		}
	})
}

func (m *Monitor) findModuleOr404(
	w http.ResponseWriter,
	id sim.ModuleID,
) sim.Module {
	mod, err := m.registry.Get(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil
	}

	return mod
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		m.fail(w, err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		m.fail(w, err)
		return
	}

	memory, err := proc.MemoryInfo()
	if err != nil {
		m.fail(w, err)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memory.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		m.fail(w, err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.fail(w, err)
		return
	}

	m.writeJSON(w, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.logger.Error("cannot write response", "err", err)
	}
}

func (m *Monitor) fail(w http.ResponseWriter, err error) {
	m.logger.Error("monitor request failed", "err", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
