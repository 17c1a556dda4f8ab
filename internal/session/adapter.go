package session

import (
	"encoding/json"
	"log/slog"

	"github.com/wireheat/afterhours/internal/models"
)

// DraftFrom extracts the pending draft out of a session bag. The bag shape
// is owned by the platform and may arrive malformed mid-call; a corrupt
// pending_request value degrades to an empty draft rather than failing the
// turn, because a live voice caller must always get a response.
func DraftFrom(bag models.GlobalData) models.Draft {
	raw, ok := bag[models.KeyPendingRequest]
	if !ok || raw == nil {
		return models.Draft{}
	}

	// The draft round-trips through JSON when the platform echoes the bag,
	// so it can arrive either as a typed Draft or as a generic map.
	switch v := raw.(type) {
	case models.Draft:
		return v
	case map[string]interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			slog.Warn("session.DraftFrom: pending_request not marshalable, treating as empty draft", "error", err)
			return models.Draft{}
		}
		var d models.Draft
		if err := json.Unmarshal(data, &d); err != nil {
			slog.Warn("session.DraftFrom: pending_request malformed, treating as empty draft", "error", err)
			return models.Draft{}
		}
		return d
	default:
		slog.Warn("session.DraftFrom: pending_request has unexpected type, treating as empty draft")
		return models.Draft{}
	}
}

// WithDraft returns a new bag with pending_request replaced by the given
// draft. Other keys are carried over untouched; the input bag is never
// mutated.
func WithDraft(bag models.GlobalData, d models.Draft) models.GlobalData {
	out := bag.Clone()
	out[models.KeyPendingRequest] = d
	return out
}

// ClearDraft returns a new bag with the pending draft reset to empty.
func ClearDraft(bag models.GlobalData) models.GlobalData {
	return WithDraft(bag, models.Draft{})
}
