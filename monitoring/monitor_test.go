package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/blofeld/blofeld/disease"
	"github.com/blofeld/blofeld/engine"
	"github.com/blofeld/blofeld/registry"
	"github.com/blofeld/blofeld/sim"
)

type fakeEngine struct {
	paused bool
	now    sim.VTimeInSec
	round  uint64
	calls  []string
}

func (e *fakeEngine) Pause() {
	e.paused = true
	e.calls = append(e.calls, "pause")
}

func (e *fakeEngine) Continue() {
	e.paused = false
	e.calls = append(e.calls, "continue")
}

func (e *fakeEngine) IsPaused() bool              { return e.paused }
func (e *fakeEngine) CurrentTime() sim.VTimeInSec { return e.now }
func (e *fakeEngine) CurrentRound() uint64        { return e.round }

var _ = Describe("Monitor", func() {
	var (
		m   *Monitor
		e   *fakeEngine
		reg *registry.Registry
	)

	serve := func(method, target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		m.Router().ServeHTTP(rec, httptest.NewRequest(method, target, nil))

		return rec
	}

	BeforeEach(func() {
		e = &fakeEngine{now: 1.5, round: 12}
		reg = registry.New()
		model := disease.NewModel(disease.DefaultParams(), 1)
		Expect(reg.Register(disease.NewProgression(model))).To(Succeed())

		m = NewMonitor().WithPortNumber(80)
		m.RegisterEngine(e)
		m.RegisterRegistry(reg)
	})

	It("should use a random port for privileged ports", func() {
		Expect(m.portNumber).To(Equal(0))
	})

	It("should pause and continue the engine", func() {
		Expect(serve(http.MethodPost, "/api/pause").Code).To(Equal(http.StatusOK))
		Expect(e.paused).To(BeTrue())

		Expect(serve(http.MethodGet, "/api/pause").Code).
			To(Equal(http.StatusMethodNotAllowed))

		Expect(serve(http.MethodPost, "/api/continue").Code).To(Equal(http.StatusOK))
		Expect(e.paused).To(BeFalse())
	})

	It("should report the current time", func() {
		rec := serve(http.MethodGet, "/api/now")

		rsp := nowRsp{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(Equal(nowRsp{Now: 1.5, Round: 12}))
	})

	It("should list modules", func() {
		rec := serve(http.MethodGet, "/api/modules")

		var ids []string
		Expect(json.Unmarshal(rec.Body.Bytes(), &ids)).To(Succeed())
		Expect(ids).To(Equal([]string{"progression"}))
	})

	It("should serialize a module", func() {
		rec := serve(http.MethodGet, "/api/module/progression")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should pause a running engine while serializing a module", func() {
		field := url.PathEscape(`{"module_id":"progression","field_name":"id"}`)

		Expect(serve(http.MethodGet, "/api/module/progression").Code).
			To(Equal(http.StatusOK))
		serve(http.MethodGet, "/api/field/"+field)

		Expect(e.calls).To(Equal([]string{
			"pause", "continue", "pause", "continue",
		}))
		Expect(e.paused).To(BeFalse())
	})

	It("should leave a paused engine paused while serializing a module", func() {
		e.paused = true

		Expect(serve(http.MethodGet, "/api/module/progression").Code).
			To(Equal(http.StatusOK))

		Expect(e.calls).To(BeEmpty())
		Expect(e.paused).To(BeTrue())
	})

	It("should return 404 for unknown modules", func() {
		Expect(serve(http.MethodGet, "/api/module/culling").Code).
			To(Equal(http.StatusNotFound))

		field := url.PathEscape(`{"module_id":"culling","field_name":"id"}`)
		Expect(serve(http.MethodGet, "/api/field/"+field).Code).
			To(Equal(http.StatusNotFound))
	})

	It("should reject malformed field requests", func() {
		Expect(serve(http.MethodGet, "/api/field/notjson").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("run", 10)
		done := m.CreateProgressBar("done", 1)
		m.CompleteProgressBar(done)

		NewProgressHook(bar, 0).Func(sim.HookCtx{
			Pos:  sim.HookPosAfterDispatch,
			Item: engine.Round{Number: 4},
		})

		rec := serve(http.MethodGet, "/api/progress")

		var bars []progressRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("run"))
		Expect(bars[0].Finished).To(Equal(uint64(4)))
	})

	It("should serve metrics when registered", func() {
		Expect(serve(http.MethodGet, "/metrics").Code).To(Equal(http.StatusNotFound))

		m.RegisterMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("blofeld_rounds 1\n"))
		}))

		Expect(serve(http.MethodGet, "/metrics").Body.String()).
			To(ContainSubstring("blofeld_rounds"))
	})
})

var _ = Describe("ProgressHook", func() {
	It("should track simulated time against the horizon", func() {
		bar := &ProgressBar{Total: 1000}
		h := NewProgressHook(bar, 10)

		h.Func(sim.HookCtx{
			Pos:  sim.HookPosAfterDispatch,
			Item: engine.Round{Number: 3, Time: 2.5},
		})
		Expect(bar.Finished).To(Equal(uint64(250)))

		h.Func(sim.HookCtx{
			Pos:  sim.HookPosAfterDispatch,
			Item: engine.Round{Number: 9, Time: 20},
		})
		Expect(bar.Finished).To(Equal(uint64(1000)))
	})
})
