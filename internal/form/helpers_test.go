package form

import (
	"context"
	"time"

	"github.com/wolfman30/leadform/internal/clock"
	"github.com/wolfman30/leadform/internal/leads"
	"github.com/wolfman30/leadform/internal/storage"
	"github.com/wolfman30/leadform/pkg/logging"
)

var testEpoch = time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC)

type fakeView struct {
	values map[string]string

	errorNodes   map[string][]string
	maxNodes     int
	clearCalls   map[string]int
	loading      bool
	loadingCalls []bool
	formHidden   bool
	successShown bool
	scrolls      []string
	scales       map[string]float64
	banners      map[string]string
	bannerCalls  []string
	focused      []string
	prepared     []string
	revealed     []string
	states       []State
}

func newFakeView() *fakeView {
	return &fakeView{
		values:     map[string]string{},
		errorNodes: map[string][]string{},
		clearCalls: map[string]int{},
		scales:     map[string]float64{},
		banners:    map[string]string{},
	}
}

func (v *fakeView) Value(field string) string { return v.values[field] }

func (v *fakeView) ShowFieldError(field, message string) {
	v.errorNodes[field] = append(v.errorNodes[field], message)
	if n := len(v.errorNodes[field]); n > v.maxNodes {
		v.maxNodes = n
	}
}

func (v *fakeView) ClearFieldError(field string) {
	v.clearCalls[field]++
	delete(v.errorNodes, field)
}

func (v *fakeView) SetLoading(loading bool) {
	v.loading = loading
	v.loadingCalls = append(v.loadingCalls, loading)
}

func (v *fakeView) HideForm()    { v.formHidden = true }
func (v *fakeView) ShowSuccess() { v.successShown = true }

func (v *fakeView) ScrollIntoView(target, block string) {
	v.scrolls = append(v.scrolls, target+":"+block)
}

func (v *fakeView) SetScale(target string, scale float64) { v.scales[target] = scale }

func (v *fakeView) ShowBanner(id, message string) {
	v.banners[id] = message
	v.bannerCalls = append(v.bannerCalls, "show:"+id)
}

func (v *fakeView) RemoveBanner(id string) {
	delete(v.banners, id)
	v.bannerCalls = append(v.bannerCalls, "remove:"+id)
}

func (v *fakeView) FocusFirstInput(container string) { v.focused = append(v.focused, container) }
func (v *fakeView) PrepareReveal(selector string)    { v.prepared = append(v.prepared, selector) }
func (v *fakeView) Reveal(target string)             { v.revealed = append(v.revealed, target) }
func (v *fakeView) StateChanged(s State)             { v.states = append(v.states, s) }

func (v *fakeView) fill(first, last, email string) {
	v.values[leads.FieldFirstName] = first
	v.values[leads.FieldLastName] = last
	v.values[leads.FieldEmail] = email
}

type recordingTracker struct {
	tracked []leads.Record
}

func (r *recordingTracker) Track(_ context.Context, rec leads.Record) {
	r.tracked = append(r.tracked, rec)
}

type panicStore struct{}

func (panicStore) Store(context.Context, leads.Record) { panic("storage exploded") }

type harness struct {
	view    *fakeView
	clock   *clock.Fake
	backend *storage.MemoryBackend
	store   *leads.Store
	tracker *recordingTracker
	ctrl    *Controller
}

func newHarness(mutate ...func(*Config)) *harness {
	h := &harness{
		view:    newFakeView(),
		clock:   clock.NewFake(testEpoch),
		backend: storage.NewMemoryBackend(),
		tracker: &recordingTracker{},
	}
	h.store = leads.NewStore(h.backend, "financial-prompts-leads", logging.Default(), nil)
	cfg := Config{
		View:      h.view,
		Store:     h.store,
		Tracker:   h.tracker,
		Clock:     h.clock,
		Scheduler: Inline{},
		Logger:    logging.Default(),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	h.ctrl = New(cfg)
	return h
}

func (h *harness) stored() []leads.Record {
	return h.store.LoadAll(context.Background())
}
