package apiimpl

import (
	"encoding/json"
	"time"

	"github.com/dwikidiandra/dstory/internal/domain"
)

// envelope is the wire shape shared by every story API response body.
type envelope struct {
	Error     bool            `json:"error"`
	Message   string          `json:"message"`
	ListStory json.RawMessage `json:"listStory"`
	Story     json.RawMessage `json:"story"`
}

type decodedKind int

const (
	// decodedMalformed covers bodies that are not JSON or whose payload
	// fields do not have the declared shape.
	decodedMalformed decodedKind = iota
	// decodedEmpty is a well-formed envelope carrying neither a list nor a
	// single story (acknowledgements, error bodies).
	decodedEmpty
	decodedList
	decodedSingle
)

// decoded is the tagged result of boundary decoding. Downstream code switches
// on Kind instead of re-probing field shapes.
type decoded struct {
	Kind    decodedKind
	Message string
	List    []wireStory
	Single  *wireStory
}

type wireStory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PhotoURL    string    `json:"photoUrl"`
	Lat         *float64  `json:"lat"`
	Lon         *float64  `json:"lon"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (w wireStory) toDomain() domain.Story {
	story := domain.Story{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		PhotoURL:    w.PhotoURL,
		CreatedAt:   w.CreatedAt,
	}
	// Coordinates come as a pair or not at all.
	if w.Lat != nil && w.Lon != nil {
		story.Lat = w.Lat
		story.Lon = w.Lon
	}
	return story
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// decodeEnvelope parses a response body into a tagged result.
func decodeEnvelope(body []byte) decoded {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return decoded{Kind: decodedMalformed}
	}

	result := decoded{Kind: decodedEmpty, Message: env.Message}

	switch {
	case !isNull(env.ListStory):
		var list []wireStory
		if err := json.Unmarshal(env.ListStory, &list); err != nil {
			return decoded{Kind: decodedMalformed, Message: env.Message}
		}
		result.Kind = decodedList
		result.List = list
	case !isNull(env.Story):
		var single wireStory
		if err := json.Unmarshal(env.Story, &single); err != nil {
			return decoded{Kind: decodedMalformed, Message: env.Message}
		}
		result.Kind = decodedSingle
		result.Single = &single
	}

	return result
}
