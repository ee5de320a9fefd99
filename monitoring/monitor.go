// Package monitoring serves a read-only HTTP view of an event handler.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/evtsched/event"
	"github.com/sarchlab/evtsched/monitoring/web"
	"github.com/sarchlab/evtsched/params"
)

// Monitor turns a handler into a web server. It only reads the handler, so
// the handler must not be mutated while the monitor is running.
type Monitor struct {
	handler    *event.Handler
	tree       *params.Tree
	portNumber int
	logger     zerolog.Logger

	profileDuration time.Duration

	server   *http.Server
	listener net.Listener
}

// NewMonitor creates a new Monitor for h.
func NewMonitor(h *event.Handler) *Monitor {
	return &Monitor{
		handler:         h,
		logger:          zerolog.Nop(),
		profileDuration: time.Second,
	}
}

// WithPortNumber sets the port number of the monitor. Ports below 1000 are
// replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 && portNumber != 0 {
		m.logger.Warn().
			Int("port", portNumber).
			Msg("port number is not allowed, using a random port instead")
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithLogger sets the logger of the monitor.
func (m *Monitor) WithLogger(logger zerolog.Logger) *Monitor {
	m.logger = logger
	return m
}

// WithParameterTree exposes the parameter store under /api/parameters/store.
func (m *Monitor) WithParameterTree(tree *params.Tree) *Monitor {
	m.tree = tree
	return m
}

// Router returns the routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/cycle_time", m.cycleTime)
	r.HandleFunc("/api/section_times", m.sectionTimes)
	r.HandleFunc("/api/section_states", m.sectionStates)
	r.HandleFunc("/api/events", m.listEvents)
	r.HandleFunc("/api/event/{name}", m.eventDetails)
	r.HandleFunc("/api/field/{json}", m.fieldValue)
	r.HandleFunc("/api/parameters", m.parameters)
	r.HandleFunc("/api/parameters/store", m.parameterStore)
	r.HandleFunc("/api/timeline/{path}", m.timeline)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts serving in the background and returns the URL of the
// monitor.
func (m *Monitor) StartServer() (string, error) {
	addr := ":0"
	if m.portNumber > 0 {
		addr = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("monitoring: %w", err)
	}

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.logger.Info().Str("url", url).Msg("monitoring schedule")

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Msg("monitor stopped")
		}
	}()

	return url, nil
}

// Shutdown stops the server started by StartServer.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (m *Monitor) fail(w http.ResponseWriter, status int, err error) {
	m.logger.Debug().Err(err).Int("status", status).Msg("request failed")
	http.Error(w, err.Error(), status)
}

func (m *Monitor) cycleTime(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, map[string]float64{"cycle_time": m.handler.CycleTime()})
}

func (m *Monitor) sectionTimes(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.handler.SectionTimes())
}

type sectionStateRsp struct {
	Start        float64              `json:"start"`
	End          float64              `json:"end"`
	Coefficients map[string][]float64 `json:"coefficients"`
}

func (m *Monitor) sectionStates(w http.ResponseWriter, _ *http.Request) {
	states, err := m.handler.SectionStates()
	if err != nil {
		m.fail(w, http.StatusInternalServerError, err)
		return
	}

	rsp := make([]sectionStateRsp, len(states))
	for i, s := range states {
		rsp[i] = sectionStateRsp(s)
	}

	m.writeJSON(w, rsp)
}

type eventRsp struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Kind           string    `json:"kind"`
	Parameter      string    `json:"parameter"`
	ComponentIndex int       `json:"component_index"`
	State          any       `json:"state"`
	Time           float64   `json:"time"`
	Independent    bool      `json:"independent"`
	Dependencies   []string  `json:"dependencies"`
	Factors        []float64 `json:"factors"`
}

func newEventRsp(kind string, e *event.Event) eventRsp {
	deps := e.Dependencies()
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.Name()
	}

	return eventRsp{
		ID:             e.ID(),
		Name:           e.Name(),
		Kind:           kind,
		Parameter:      e.ParameterPath(),
		ComponentIndex: e.ComponentIndex(),
		State:          e.State(),
		Time:           e.Time(),
		Independent:    e.IsIndependent(),
		Dependencies:   names,
		Factors:        e.Factors(),
	}
}

func (m *Monitor) listEvents(w http.ResponseWriter, _ *http.Request) {
	rsp := []eventRsp{}

	for _, e := range m.handler.Events() {
		rsp = append(rsp, newEventRsp("event", e))
	}

	for _, d := range m.handler.Durations() {
		rsp = append(rsp, newEventRsp("duration", &d.Event))
	}

	m.writeJSON(w, rsp)
}

func (m *Monitor) findEntityOr404(w http.ResponseWriter, name string) event.Scheduled {
	s, ok := m.handler.Lookup(name)
	if !ok {
		m.fail(w, http.StatusNotFound, fmt.Errorf("event %q not found", name))
		return nil
	}

	return s
}

func (m *Monitor) eventDetails(w http.ResponseWriter, r *http.Request) {
	s := m.findEntityOr404(w, mux.Vars(r)["name"])
	if s == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(s)
	serializer.SetMaxDepth(1)

	w.Header().Set("Content-Type", "application/json")
	if err := serializer.Serialize(w); err != nil {
		m.logger.Error().Err(err).Msg("failed to serialize event")
	}
}

type fieldReq struct {
	Name  string `json:"name,omitempty"`
	Field string `json:"field,omitempty"`
}

func (m *Monitor) fieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}
	if err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req); err != nil {
		m.fail(w, http.StatusBadRequest, err)
		return
	}

	s := m.findEntityOr404(w, req.Name)
	if s == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(s)
	serializer.SetMaxDepth(1)

	if err := serializer.SetEntryPoint(strings.Split(req.Field, ".")); err != nil {
		m.fail(w, http.StatusBadRequest, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := serializer.Serialize(w); err != nil {
		m.logger.Error().Err(err).Msg("failed to serialize field")
	}
}

func (m *Monitor) parameters(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.handler.Parameters())
}

func (m *Monitor) parameterStore(w http.ResponseWriter, _ *http.Request) {
	if m.tree == nil {
		m.fail(w, http.StatusNotFound, errors.New("no parameter tree registered"))
		return
	}

	m.writeJSON(w, m.tree.Nested())
}

type sectionRsp struct {
	Start        float64   `json:"start"`
	End          float64   `json:"end"`
	Polynomial   bool      `json:"polynomial"`
	Coefficients []float64 `json:"coefficients"`
}

type valueRsp struct {
	Time  float64   `json:"time"`
	Value []float64 `json:"value"`
}

func (m *Monitor) timeline(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]

	timelines, err := m.handler.ParameterTimelines()
	if err != nil {
		m.fail(w, http.StatusInternalServerError, err)
		return
	}

	tl, ok := timelines[path]
	if !ok {
		m.fail(w, http.StatusNotFound, fmt.Errorf("no events change %q", path))
		return
	}

	if tStr := r.URL.Query().Get("t"); tStr != "" {
		t, err := strconv.ParseFloat(tStr, 64)
		if err != nil {
			m.fail(w, http.StatusBadRequest, err)
			return
		}

		t = event.Modulo(t, m.handler.CycleTime())
		v, err := tl.Value(t)
		if err != nil {
			m.fail(w, http.StatusBadRequest, err)
			return
		}

		m.writeJSON(w, valueRsp{Time: t, Value: v})

		return
	}

	sections := tl.Sections()
	rsp := make([]sectionRsp, len(sections))
	for i, s := range sections {
		rsp[i] = sectionRsp{
			Start:        s.Start,
			End:          s.End,
			Polynomial:   s.IsPolynomial(),
			Coefficients: s.Coefficients(),
		}
	}

	m.writeJSON(w, rsp)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		m.fail(w, http.StatusInternalServerError, err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		m.fail(w, http.StatusInternalServerError, err)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		m.fail(w, http.StatusInternalServerError, err)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		m.fail(w, http.StatusConflict, err)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.fail(w, http.StatusInternalServerError, err)
		return
	}

	m.writeJSON(w, prof)
}
