package runtime

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/itinera/internal/browser"
	"github.com/ternarybob/itinera/internal/common"
	"github.com/ternarybob/itinera/internal/interfaces"
	"github.com/ternarybob/itinera/internal/mapsync"
	"github.com/ternarybob/itinera/internal/models"
	"github.com/ternarybob/itinera/internal/session"
)

const (
	// welcomeMessage seeds the transcript after a reset.
	welcomeMessage = `Welcome to your Travel AI Assistant! Tell me your name, and I'll help you plan your perfect trip. Let's start by gathering some information:
<ul>
  <li>Which city would you like to visit?</li>
  <li>How many days will you stay?</li>
  <li>What's your budget (low, medium, high)?</li>
  <li>How many people are traveling?</li>
  <li>Are you traveling with children, pets, or have any special requirements?</li>
  <li>What type of activities do you enjoy (e.g., adventure, relaxation, culture)?</li>
  <li>What's your health condition?</li>
</ul>
`

	// failureMessage replaces the assistant entry when a turn fails. The
	// actual failure detail goes to the logs only.
	failureMessage = "Sorry, there was an error processing your request. Please try again."

	selectPromptMessage = "Please select at least one attraction from the recommendations."
	confirmMessage      = "Here are my selected attractions"

	resetTimeout = 10 * time.Second
)

// Engine coordinates the session store, the attraction browser, the map
// synchronizers and the view surfaces. All mutation runs behind one mutex;
// the streaming consumer and the nearby write-backs take the same lock, so
// every view sees a consistent session.
type Engine struct {
	mu       sync.Mutex
	turnOpen bool

	store    *session.Store
	browser  *browser.Browser
	markers  *mapsync.Synchronizer
	route    *mapsync.RouteRenderer
	client   interfaces.PlanningClient
	renderer interfaces.MarkdownRenderer
	chat     interfaces.ChatView
	planner  interfaces.PlannerView
	mapv     interfaces.MapView
	logger   arbor.ILogger
}

// Options carries the engine's collaborators.
type Options struct {
	Client      interfaces.PlanningClient
	Renderer    interfaces.MarkdownRenderer
	ChatView    interfaces.ChatView
	PlannerView interfaces.PlannerView
	BrowserView interfaces.BrowserView
	MapView     interfaces.MapView
	Logger      arbor.ILogger
}

// New wires an engine over the given views and backend client.
func New(opts Options) *Engine {
	e := &Engine{
		client:   opts.Client,
		renderer: opts.Renderer,
		chat:     opts.ChatView,
		planner:  opts.PlannerView,
		mapv:     opts.MapView,
		logger:   opts.Logger,
	}
	e.store = session.NewStore(opts.Logger)
	e.markers = mapsync.NewSynchronizer(opts.MapView, opts.Logger)
	e.route = mapsync.NewRouteRenderer(opts.MapView, opts.Logger)
	e.browser = browser.New(&e.mu, e.store, opts.BrowserView, e.markers,
		opts.Client, opts.Renderer, opts.Logger)
	return e
}

// Start seeds the initial UI: welcome message, first step highlighted, empty
// browser and default map view.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seedInitialView()
}

// StateSnapshot returns a copy of the current session state.
func (e *Engine) StateSnapshot() models.SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.State()
}

// SubmitMessage sends one user turn. Empty input is ignored, as is a submit
// while an exchange is already open.
func (e *Engine) SubmitMessage(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.submit(text)
}

// NextAttraction advances the attraction browser one page.
func (e *Engine) NextAttraction() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.browser.Next()
}

// PreviousAttraction moves the attraction browser back one page.
func (e *Engine) PreviousAttraction() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.browser.Previous()
}

// ToggleCurrentAttraction flips the selection of the displayed attraction.
func (e *Engine) ToggleCurrentAttraction() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.browser.ToggleCurrent()
}

// ConfirmSelections submits the selected attractions as a turn. With nothing
// selected the user is prompted inline instead.
func (e *Engine) ConfirmSelections() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.store.Selected()) == 0 {
		e.chat.AppendAssistantMessage(selectPromptMessage)
		return
	}
	e.submit(confirmMessage)
}

// Reset clears the backend session and restores the initial UI. A failed
// backend reset is logged and the local reset proceeds; the next turn simply
// starts a fresh backend session.
func (e *Engine) Reset() {
	ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
	defer cancel()
	if err := e.client.Reset(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("Backend session reset failed")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Reset()
	e.turnOpen = false
	e.seedInitialView()
}

func (e *Engine) seedInitialView() {
	e.chat.Clear()
	e.chat.AppendAssistantMessage(welcomeMessage)
	e.planner.HighlightStep(models.StepChat)
	e.planner.ClearMissingFields()
	e.planner.SetBusy(false)
	e.markers.Clear()
	e.route.Clear()
	e.browser.Load(nil)
	e.mapv.SetDefaultView()
}

// submit starts a streaming turn. Caller holds the lock.
func (e *Engine) submit(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if e.turnOpen {
		e.logger.Debug().Msg("Ignoring submit while a turn is open")
		return
	}

	state := e.store.State()
	req := &models.TurnRequest{
		Step:      state.Step,
		UserInput: text,
		SessionID: state.SessionID,
	}
	if state.Step == models.StepRecommend && len(state.SelectedAttractions) > 0 {
		req.SelectedAttractionIDs = state.SelectedIDs()
	}
	aiGenerated := state.AIRecommendationGenerated
	inputProcessed := state.UserInputProcessed
	req.AIRecommendationGenerated = &aiGenerated
	req.UserInputProcessed = &inputProcessed

	e.chat.AppendUserMessage(text)
	entryID := e.chat.BeginAssistantMessage()

	events, err := e.client.StreamTurn(context.Background(), req)
	if err != nil {
		e.logger.Error().Err(err).Msg("Failed to open streaming exchange")
		e.chat.UpdateAssistantMessage(entryID, failureMessage)
		return
	}

	e.turnOpen = true
	e.planner.SetBusy(true)
	common.SafeGo(e.logger, "consumeTurn", func() {
		e.consumeTurn(entryID, events)
	})
}
