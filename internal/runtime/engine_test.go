package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/itinera/internal/models"
)

type fakeChat struct {
	mu        sync.Mutex
	userMsgs  []string
	assistant []string
	updates   map[string][]string
	nextID    int
	clears    int
}

func newFakeChat() *fakeChat {
	return &fakeChat{updates: map[string][]string{}}
}

func (c *fakeChat) AppendUserMessage(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userMsgs = append(c.userMsgs, text)
}

func (c *fakeChat) BeginAssistantMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return fmt.Sprintf("entry-%d", c.nextID)
}

func (c *fakeChat) UpdateAssistantMessage(id, html string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates[id] = append(c.updates[id], html)
}

func (c *fakeChat) AppendAssistantMessage(html string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assistant = append(c.assistant, html)
}

func (c *fakeChat) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
}

func (c *fakeChat) lastUpdate(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ups := c.updates[id]
	if len(ups) == 0 {
		return ""
	}
	return ups[len(ups)-1]
}

type fakePlanner struct {
	mu            sync.Mutex
	steps         []string
	missing       [][]string
	missingClears int
	itineraries   [][]models.ItineraryDay
	budgets       []*models.Budget
	confirmations []string
	busy          []bool
}

func (p *fakePlanner) HighlightStep(step string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, step)
}

func (p *fakePlanner) ShowMissingFields(fields []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.missing = append(p.missing, fields)
}

func (p *fakePlanner) ClearMissingFields() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.missingClears++
}

func (p *fakePlanner) ShowItinerary(days []models.ItineraryDay) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.itineraries = append(p.itineraries, days)
}

func (p *fakePlanner) ShowBudget(b *models.Budget) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.budgets = append(p.budgets, b)
}

func (p *fakePlanner) ShowConfirmation(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmations = append(p.confirmations, html)
}

func (p *fakePlanner) SetBusy(busy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy = append(p.busy, busy)
}

func (p *fakePlanner) lastBusy() (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.busy) == 0 {
		return false, false
	}
	return p.busy[len(p.busy)-1], true
}

type fakeBrowser struct {
	mu       sync.Mutex
	pages    []models.AttractionPage
	empties  int
	selected [][]models.Attraction
}

func (b *fakeBrowser) ShowAttraction(p models.AttractionPage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages = append(b.pages, p)
}

func (b *fakeBrowser) ShowEmpty() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.empties++
}

func (b *fakeBrowser) SetConfirmVisible(bool) {}
func (b *fakeBrowser) SetNearbyInfo(string, string) {}
func (b *fakeBrowser) SetNearbyError(string, string) {}

func (b *fakeBrowser) ShowSelected(sel []models.Attraction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selected = append(b.selected, sel)
}

type fakeMap struct {
	mu       sync.Mutex
	markers  map[string]bool
	plots    [][]models.MapPoint
	paths    [][]models.Location
	stops    []models.RouteMarker
	defaults int
}

func newFakeMap() *fakeMap { return &fakeMap{markers: map[string]bool{}} }

func (m *fakeMap) AddMarker(mk models.Marker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers[mk.AttractionID] = true
}

func (m *fakeMap) RemoveMarker(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.markers, id)
}

func (m *fakeMap) PlotPoints(points []models.MapPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plots = append(m.plots, points)
}

func (m *fakeMap) ClearRoute() {}

func (m *fakeMap) DrawRoutePath(path []models.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
}

func (m *fakeMap) AddRouteStop(mk models.RouteMarker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops = append(m.stops, mk)
}

func (m *fakeMap) FitBounds(models.Bounds) {}

func (m *fakeMap) SetDefaultView() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults++
}

// fakePlanningClient scripts the events of each turn in order.
type fakePlanningClient struct {
	mu       sync.Mutex
	turns    [][]models.TurnEvent
	requests []*models.TurnRequest
	openErr  error
	resets   int
}

func (c *fakePlanningClient) StreamTurn(ctx context.Context, req *models.TurnRequest) (<-chan models.TurnEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return nil, c.openErr
	}
	c.requests = append(c.requests, req)

	var script []models.TurnEvent
	if len(c.turns) > 0 {
		script = c.turns[0]
		c.turns = c.turns[1:]
	}

	events := make(chan models.TurnEvent, len(script))
	for _, ev := range script {
		events <- ev
	}
	close(events)
	return events, nil
}

func (c *fakePlanningClient) Nearby(ctx context.Context, loc models.Location) (*models.NearbyResult, error) {
	return &models.NearbyResult{}, nil
}

func (c *fakePlanningClient) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets++
	return nil
}

func (c *fakePlanningClient) lastRequest() *models.TurnRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return nil
	}
	return c.requests[len(c.requests)-1]
}

type rawRenderer struct{}

func (rawRenderer) Render(md string) string { return md }

type engineFixture struct {
	engine  *Engine
	chat    *fakeChat
	planner *fakePlanner
	browser *fakeBrowser
	mapView *fakeMap
	client  *fakePlanningClient
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		chat:    newFakeChat(),
		planner: &fakePlanner{},
		browser: &fakeBrowser{},
		mapView: newFakeMap(),
		client:  &fakePlanningClient{},
	}
	f.engine = New(Options{
		Client:      f.client,
		Renderer:    rawRenderer{},
		ChatView:    f.chat,
		PlannerView: f.planner,
		BrowserView: f.browser,
		MapView:     f.mapView,
		Logger:      arbor.NewLogger(),
	})
	return f
}

// waitIdle waits for the open exchange to finish.
func (f *engineFixture) waitIdle(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.engine.mu.Lock()
		open := f.engine.turnOpen
		f.engine.mu.Unlock()
		if !open {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("turn never finished")
}

func completeEvent(payload string) models.TurnEvent {
	var p models.TurnPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		panic(err)
	}
	return models.TurnEvent{Type: models.TurnEventComplete, Payload: &p}
}

func TestSubmitMessageStreamsAndCompletes(t *testing.T) {
	f := newEngineFixture()
	f.client.turns = [][]models.TurnEvent{{
		{Type: models.TurnEventChunk, Content: "Planning "},
		{Type: models.TurnEventChunk, Content: "your trip."},
		completeEvent(`{"next_step": "recommend", "session_id": "s1"}`),
	}}

	f.engine.SubmitMessage("3 days in Paris")
	f.waitIdle(t)

	if len(f.chat.userMsgs) != 1 || f.chat.userMsgs[0] != "3 days in Paris" {
		t.Errorf("user messages = %v", f.chat.userMsgs)
	}
	if got := f.chat.lastUpdate("entry-1"); got != "Planning your trip." {
		t.Errorf("final transcript = %q", got)
	}

	state := f.engine.store.State()
	if state.Step != models.StepRecommend || state.SessionID != "s1" {
		t.Errorf("state after turn = %+v", state)
	}
	if last, ok := f.planner.lastBusy(); !ok || last {
		t.Error("busy indicator should be lowered after completion")
	}
	if len(f.planner.steps) == 0 || f.planner.steps[len(f.planner.steps)-1] != "recommend" {
		t.Errorf("highlighted steps = %v", f.planner.steps)
	}
}

func TestSubmitMessageIgnoresEmptyInput(t *testing.T) {
	f := newEngineFixture()
	f.engine.SubmitMessage("   ")
	if len(f.chat.userMsgs) != 0 {
		t.Errorf("empty input should be ignored, got %v", f.chat.userMsgs)
	}
	if req := f.client.lastRequest(); req != nil {
		t.Errorf("no request should be sent, got %+v", req)
	}
}

func TestSubmitWhileTurnOpenIsIgnored(t *testing.T) {
	f := newEngineFixture()

	f.engine.mu.Lock()
	f.engine.turnOpen = true
	f.engine.mu.Unlock()

	f.engine.SubmitMessage("second message")
	if len(f.chat.userMsgs) != 0 {
		t.Errorf("submit during open turn should be ignored, got %v", f.chat.userMsgs)
	}
}

func TestTurnErrorShowsGenericMessage(t *testing.T) {
	f := newEngineFixture()
	f.client.turns = [][]models.TurnEvent{{
		{Type: models.TurnEventChunk, Content: "partial"},
		{Type: models.TurnEventError, Err: "agent exploded"},
	}}

	f.engine.SubmitMessage("hello")
	f.waitIdle(t)

	got := f.chat.lastUpdate("entry-1")
	if got != failureMessage {
		t.Errorf("transcript = %q, want the generic failure message", got)
	}
	if strings.Contains(got, "agent exploded") {
		t.Error("backend detail must not reach the transcript")
	}
	if last, ok := f.planner.lastBusy(); !ok || last {
		t.Error("busy indicator should be lowered after error")
	}

	// The session stays usable: a new turn can be submitted.
	f.client.mu.Lock()
	f.client.turns = [][]models.TurnEvent{{completeEvent(`{}`)}}
	f.client.mu.Unlock()
	f.engine.SubmitMessage("try again")
	f.waitIdle(t)
	if len(f.chat.userMsgs) != 2 {
		t.Errorf("user messages = %v", f.chat.userMsgs)
	}
}

func TestCompletePayloadDrivesViews(t *testing.T) {
	f := newEngineFixture()
	f.client.turns = [][]models.TurnEvent{{
		completeEvent(`{
			"next_step": "recommend",
			"missing_fields": ["budget", "days"],
			"state": {"user_info": {"city": "Paris"}},
			"attractions": [
				{"id": "a1", "name": "Louvre", "location": {"lat": 48.8606, "lng": 2.3376}},
				{"bogus": 1},
				{"id": "a2", "name": "Eiffel Tower"}
			],
			"map_data": [
				{"id": "m1", "name": "Louvre", "location": {"lat": 48.8606, "lng": 2.3376}},
				{"id": "m2", "name": "Broken"}
			],
			"itinerary": [{"day": 1, "date": "2026-09-01", "spots": [{"name": "Louvre"}]}],
			"budget": {"total": 900, "accommodation": 400, "food": 200, "transport": 150, "attractions": 150},
			"response": "All set!",
			"optimal_route": [
				{"name": "Louvre", "day": 1, "location": {"lat": 48.8606, "lng": 2.3376}},
				{"name": "Eiffel", "day": 1, "location": {"lat": 48.8584, "lng": 2.2945}}
			]
		}`),
	}}

	f.engine.SubmitMessage("show me attractions")
	f.waitIdle(t)

	if len(f.planner.missing) != 1 || len(f.planner.missing[0]) != 2 {
		t.Errorf("missing fields = %v", f.planner.missing)
	}
	if city := f.engine.store.State().UserInfo["city"]; city != "Paris" {
		t.Errorf("state merge missed: city = %v", city)
	}

	// Malformed attraction skipped, the two valid ones loaded.
	if len(f.browser.pages) == 0 {
		t.Fatal("browser never showed a page")
	}
	first := f.browser.pages[0]
	if first.Total != 2 || first.Attraction.ID != "a1" {
		t.Errorf("first page = %+v", first)
	}

	// Malformed map point skipped.
	if len(f.mapView.plots) != 1 || len(f.mapView.plots[0]) != 1 {
		t.Errorf("plots = %+v", f.mapView.plots)
	}

	if len(f.planner.itineraries) != 1 || len(f.planner.itineraries[0]) != 1 {
		t.Errorf("itineraries = %+v", f.planner.itineraries)
	}
	if len(f.planner.budgets) != 1 || f.planner.budgets[0].Total != 900 {
		t.Errorf("budgets = %+v", f.planner.budgets)
	}
	if len(f.planner.confirmations) != 1 || f.planner.confirmations[0] != "All set!" {
		t.Errorf("confirmations = %v", f.planner.confirmations)
	}
	if len(f.mapView.paths) != 1 || len(f.mapView.paths[0]) != 2 {
		t.Errorf("route paths = %+v", f.mapView.paths)
	}
	if len(f.mapView.stops) != 2 || f.mapView.stops[1].Number != 2 {
		t.Errorf("route stops = %+v", f.mapView.stops)
	}
}

func TestRejectedStatePatchKeepsSession(t *testing.T) {
	f := newEngineFixture()
	f.client.turns = [][]models.TurnEvent{
		{completeEvent(`{"state": {"user_info": {"city": "Paris"}}}`)},
		{completeEvent(`{"state": {"user_info": "broken"}}`)},
	}

	f.engine.SubmitMessage("first")
	f.waitIdle(t)
	f.engine.SubmitMessage("second")
	f.waitIdle(t)

	if city := f.engine.store.State().UserInfo["city"]; city != "Paris" {
		t.Errorf("rejected patch damaged the session: city = %v", city)
	}
}

func TestConfirmSelections(t *testing.T) {
	f := newEngineFixture()

	// Nothing selected: inline prompt, no request.
	f.engine.ConfirmSelections()
	if len(f.chat.assistant) != 1 || f.chat.assistant[0] != selectPromptMessage {
		t.Errorf("assistant messages = %v", f.chat.assistant)
	}
	if f.client.lastRequest() != nil {
		t.Error("no turn should open with an empty selection")
	}

	// With a selection in the recommend step the ids ride along.
	f.engine.mu.Lock()
	f.engine.store.SetStep(models.StepRecommend)
	f.engine.store.Select(models.Attraction{ID: "a1", Name: "Louvre"})
	f.engine.store.Select(models.Attraction{ID: "a2", Name: "Eiffel"})
	f.engine.mu.Unlock()

	f.client.mu.Lock()
	f.client.turns = [][]models.TurnEvent{{completeEvent(`{"next_step": "itinerary"}`)}}
	f.client.mu.Unlock()

	f.engine.ConfirmSelections()
	f.waitIdle(t)

	req := f.client.lastRequest()
	if req == nil {
		t.Fatal("no turn request sent")
	}
	if req.UserInput != confirmMessage {
		t.Errorf("user input = %q", req.UserInput)
	}
	if len(req.SelectedAttractionIDs) != 2 || req.SelectedAttractionIDs[0] != "a1" {
		t.Errorf("selected ids = %v", req.SelectedAttractionIDs)
	}
}

func TestSelectedIDsOnlyInRecommendStep(t *testing.T) {
	f := newEngineFixture()
	f.engine.mu.Lock()
	f.engine.store.Select(models.Attraction{ID: "a1", Name: "Louvre"})
	f.engine.mu.Unlock()

	f.client.turns = [][]models.TurnEvent{{completeEvent(`{}`)}}
	f.engine.SubmitMessage("hello")
	f.waitIdle(t)

	req := f.client.lastRequest()
	if req == nil {
		t.Fatal("no request sent")
	}
	if req.SelectedAttractionIDs != nil {
		t.Errorf("ids should not ride along outside the recommend step: %v", req.SelectedAttractionIDs)
	}
}

func TestReset(t *testing.T) {
	f := newEngineFixture()
	f.engine.mu.Lock()
	f.engine.store.AdoptSessionID("s1")
	f.engine.store.Select(models.Attraction{
		ID: "a1", Name: "Louvre",
		Location: &models.Location{Lat: 48.8606, Lng: 2.3376},
	})
	f.engine.mu.Unlock()

	f.engine.Reset()

	if f.client.resets != 1 {
		t.Errorf("backend resets = %d, want 1", f.client.resets)
	}
	if f.chat.clears != 1 {
		t.Errorf("transcript clears = %d, want 1", f.chat.clears)
	}
	if len(f.chat.assistant) == 0 || !strings.Contains(f.chat.assistant[len(f.chat.assistant)-1], "Welcome to your Travel AI Assistant") {
		t.Error("welcome message missing after reset")
	}

	state := f.engine.store.State()
	if state.SessionID != "" || len(state.SelectedAttractions) != 0 {
		t.Errorf("session not cleared: %+v", state)
	}
	if f.mapView.defaults == 0 {
		t.Error("map should return to the default view")
	}
	if f.browser.empties == 0 {
		t.Error("browser should show the empty state")
	}
	if len(f.planner.steps) == 0 || f.planner.steps[len(f.planner.steps)-1] != models.StepChat {
		t.Errorf("highlighted steps = %v", f.planner.steps)
	}
}
