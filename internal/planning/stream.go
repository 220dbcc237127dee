package planning

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ternarybob/itinera/internal/models"
)

// StreamTurn opens one streaming exchange with the backend. Events arrive on
// the returned channel in wire order; the channel closes after the terminal
// event. A transport failure mid-stream is surfaced as a synthesized error
// event so the consumer sees exactly one terminal event per turn.
func (c *Client) StreamTurn(ctx context.Context, req *models.TurnRequest) (<-chan models.TurnEvent, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.streamURL(req), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream request returned status %d", resp.StatusCode)
	}

	events := make(chan models.TurnEvent)
	go c.readEvents(resp, events)
	return events, nil
}

func (c *Client) streamURL(req *models.TurnRequest) string {
	q := url.Values{}
	q.Set("step", req.Step)
	q.Set("user_input", req.UserInput)
	if req.SessionID != "" {
		q.Set("session_id", req.SessionID)
	}
	if len(req.SelectedAttractionIDs) > 0 {
		// The backend expects the id list as a JSON array in one parameter.
		ids, _ := json.Marshal(req.SelectedAttractionIDs)
		q.Set("selected_attraction_ids", string(ids))
	}
	if req.AIRecommendationGenerated != nil {
		q.Set("ai_recommendation_generated", strconv.FormatBool(*req.AIRecommendationGenerated))
	}
	if req.UserInputProcessed != nil {
		q.Set("user_input_processed", strconv.FormatBool(*req.UserInputProcessed))
	}
	return c.baseURL + "/api/stream?" + q.Encode()
}

// readEvents parses the SSE body line by line, decoding each data payload
// into a tagged event. It always closes the channel, and always delivers a
// terminal event first.
func (c *Client) readEvents(resp *http.Response, events chan<- models.TurnEvent) {
	defer resp.Body.Close()
	defer close(events)

	terminal := false
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		event, err := decodeEvent([]byte(data))
		if err != nil {
			c.logger.Warn().Err(err).Msg("Skipping undecodable stream event")
			continue
		}

		events <- event
		if event.Type == models.TurnEventComplete || event.Type == models.TurnEventError {
			terminal = true
			break
		}
	}

	if terminal {
		return
	}

	// The stream ended without a terminal event: connection drop, scanner
	// error or backend bug. The consumer still gets a terminal error.
	detail := "stream closed before completion"
	if err := scanner.Err(); err != nil {
		detail = err.Error()
	}
	c.logger.Warn().Str("detail", detail).Msg("Streaming exchange ended abnormally")
	events <- models.TurnEvent{Type: models.TurnEventError, Err: detail}
}

func decodeEvent(data []byte) (models.TurnEvent, error) {
	var wire struct {
		Type    string `json:"type"`
		Content string `json:"content"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return models.TurnEvent{}, fmt.Errorf("malformed stream event: %w", err)
	}

	switch models.TurnEventType(wire.Type) {
	case models.TurnEventChunk:
		return models.TurnEvent{Type: models.TurnEventChunk, Content: wire.Content}, nil

	case models.TurnEventComplete:
		var payload models.TurnPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return models.TurnEvent{}, fmt.Errorf("malformed complete payload: %w", err)
		}
		return models.TurnEvent{Type: models.TurnEventComplete, Payload: &payload}, nil

	case models.TurnEventError:
		detail := wire.Message
		if detail == "" {
			detail = wire.Content
		}
		return models.TurnEvent{Type: models.TurnEventError, Err: detail}, nil

	default:
		return models.TurnEvent{}, fmt.Errorf("unknown stream event type %q", wire.Type)
	}
}
