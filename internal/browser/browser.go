package browser

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/itinera/internal/common"
	"github.com/ternarybob/itinera/internal/interfaces"
	"github.com/ternarybob/itinera/internal/mapsync"
	"github.com/ternarybob/itinera/internal/models"
	"github.com/ternarybob/itinera/internal/session"
)

const nearbyTimeout = 10 * time.Second

// Browser pages through the candidate attractions one at a time and owns the
// per-page nearby lookup. All methods assume the engine's lock is held; the
// lock is also taken by the async nearby write-back, which is why the
// browser carries it as a sync.Locker.
type Browser struct {
	mu       sync.Locker
	store    *session.Store
	view     interfaces.BrowserView
	markers  *mapsync.Synchronizer
	nearby   interfaces.NearbyProvider
	renderer interfaces.MarkdownRenderer
	logger   arbor.ILogger

	list  []models.Attraction
	index int

	// generation guards nearby write-backs: bumped on every page render,
	// so a slow lookup for a page the user already left is discarded.
	generation uint64
}

// New creates an attraction browser. The locker must be the same lock the
// engine serializes view mutation with.
func New(
	mu sync.Locker,
	store *session.Store,
	view interfaces.BrowserView,
	markers *mapsync.Synchronizer,
	nearby interfaces.NearbyProvider,
	renderer interfaces.MarkdownRenderer,
	logger arbor.ILogger,
) *Browser {
	return &Browser{
		mu:       mu,
		store:    store,
		view:     view,
		markers:  markers,
		nearby:   nearby,
		renderer: renderer,
		logger:   logger,
	}
}

// Load replaces the browsed list and rewinds to the first page. An empty
// list shows the empty state and hides the confirm control.
func (b *Browser) Load(attractions []models.Attraction) {
	b.list = attractions
	b.index = 0
	b.store.SetAttractions(attractions)

	if len(b.list) == 0 {
		b.generation++
		b.view.ShowEmpty()
		b.view.SetConfirmVisible(false)
		return
	}
	b.view.SetConfirmVisible(true)
	b.view.ShowSelected(b.store.Selected())
	b.renderPage()
}

// Next advances one page. At the last page it is a no-op.
func (b *Browser) Next() {
	if b.index+1 >= len(b.list) {
		return
	}
	b.index++
	b.renderPage()
}

// Previous goes back one page. At the first page it is a no-op.
func (b *Browser) Previous() {
	if b.index == 0 || len(b.list) == 0 {
		return
	}
	b.index--
	b.renderPage()
}

// Current returns the attraction on the displayed page.
func (b *Browser) Current() (models.Attraction, bool) {
	if len(b.list) == 0 {
		return models.Attraction{}, false
	}
	return b.list[b.index], true
}

// ToggleCurrent flips the selection of the displayed attraction, keeping the
// selection markers and the selected-list rendering in step.
func (b *Browser) ToggleCurrent() {
	current, ok := b.Current()
	if !ok {
		return
	}

	if b.store.HasSelected(current.ID) {
		b.store.Deselect(current.ID)
		b.markers.Remove(current.ID)
	} else {
		b.store.Select(current)
		b.markers.Add(current)
	}

	b.view.ShowSelected(b.store.Selected())
	b.showCurrent()
}

// Refresh re-renders the displayed page without changing position. Used
// after a state merge rewrites the selection out from under the browser.
func (b *Browser) Refresh() {
	b.view.ShowSelected(b.store.Selected())
	if len(b.list) == 0 {
		b.view.ShowEmpty()
		return
	}
	b.showCurrent()
}

// renderPage shows the page and kicks off its nearby lookup.
func (b *Browser) renderPage() {
	current := b.list[b.index]
	b.showCurrent()

	b.generation++
	gen := b.generation

	if current.Location == nil {
		b.view.SetNearbyError(current.ID, "Nearby places are unavailable for this attraction.")
		return
	}
	loc := *current.Location
	common.SafeGo(b.logger, "lookupNearby", func() {
		b.lookupNearby(gen, current.ID, loc)
	})
}

func (b *Browser) showCurrent() {
	current := b.list[b.index]
	b.view.ShowAttraction(models.AttractionPage{
		Attraction: current,
		Index:      b.index,
		Total:      len(b.list),
		Selected:   b.store.HasSelected(current.ID),
		HasPrev:    b.index > 0,
		HasNext:    b.index+1 < len(b.list),
	})
}

// lookupNearby runs outside the lock and writes back under it. Results that
// arrive after the page changed are dropped.
func (b *Browser) lookupNearby(gen uint64, attractionID string, loc models.Location) {
	ctx, cancel := context.WithTimeout(context.Background(), nearbyTimeout)
	defer cancel()

	result, err := b.nearby.Nearby(ctx, loc)

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.generation {
		b.logger.Debug().Str("attraction_id", attractionID).Msg("Discarding stale nearby result")
		return
	}

	if err != nil {
		b.logger.Warn().Err(err).Str("attraction_id", attractionID).Msg("Nearby lookup failed")
		b.view.SetNearbyError(attractionID, "Could not load nearby restaurants.")
		return
	}

	b.view.SetNearbyInfo(attractionID, b.renderer.Render(formatNearby(result)))
}
