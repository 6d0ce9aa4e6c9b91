// Package catalog holds the built-in mode definitions.
package catalog

import (
	"errors"
	"fmt"

	"github.com/rcliao/quiet-assistant/internal/model"
)

// ErrUnknownMode is returned by Lookup for a type outside the catalog.
var ErrUnknownMode = errors.New("unknown mode type")

var order = []model.ModeType{
	model.ModePrayer,
	model.ModeMeeting,
	model.ModeNap,
	model.ModeStudy,
	model.ModeCustom,
}

var definitions = map[model.ModeType]model.ModeDefinition{
	model.ModePrayer: {
		Type:                   model.ModePrayer,
		Name:                   "Prayer Mode",
		DefaultMessage:         "I'm currently at the mosque/praying. I'll call you back soon, Insha'Allah.",
		DefaultDurationMinutes: 30,
		AutoSilenceDefault:     true,
		AutoReplyDefault:       true,
		CanSchedule:            true,
		CanGeofence:            true,
	},
	model.ModeMeeting: {
		Type:                   model.ModeMeeting,
		Name:                   "Meeting Mode",
		DefaultMessage:         "I'm in a meeting right now. I'll get back to you as soon as possible.",
		DefaultDurationMinutes: 60,
		AutoSilenceDefault:     true,
		AutoReplyDefault:       true,
		CanSchedule:            true,
		CanGeofence:            true,
	},
	model.ModeNap: {
		Type:                   model.ModeNap,
		Name:                   "Nap Mode",
		DefaultMessage:         "I'm taking a nap. I'll call you back when I wake up.",
		DefaultDurationMinutes: 45,
		AutoSilenceDefault:     true,
		AutoReplyDefault:       true,
		CanSchedule:            true,
		CanGeofence:            false,
	},
	model.ModeStudy: {
		Type:                   model.ModeStudy,
		Name:                   "Study Mode",
		DefaultMessage:         "I'm studying/working right now. I'll respond when I take a break.",
		DefaultDurationMinutes: 90,
		AutoSilenceDefault:     true,
		AutoReplyDefault:       true,
		CanSchedule:            true,
		CanGeofence:            false,
	},
	model.ModeCustom: {
		Type:                   model.ModeCustom,
		Name:                   "Custom Mode",
		DefaultMessage:         "I'm currently unavailable. I'll get back to you soon.",
		DefaultDurationMinutes: 60,
		AutoSilenceDefault:     true,
		AutoReplyDefault:       true,
		CanSchedule:            true,
		CanGeofence:            true,
	},
}

// Get returns the definition for t. It panics if t is not a known mode type.
func Get(t model.ModeType) model.ModeDefinition {
	def, ok := definitions[t]
	if !ok {
		panic(fmt.Sprintf("catalog: unknown mode type %q", t))
	}
	return def
}

// Lookup returns the definition for t, or ErrUnknownMode.
func Lookup(t model.ModeType) (model.ModeDefinition, error) {
	def, ok := definitions[t]
	if !ok {
		return model.ModeDefinition{}, fmt.Errorf("%w %q (valid: prayer, meeting, nap, study, custom)", ErrUnknownMode, t)
	}
	return def, nil
}

// All returns every definition in catalog order.
func All() []model.ModeDefinition {
	out := make([]model.ModeDefinition, 0, len(order))
	for _, t := range order {
		out = append(out, definitions[t])
	}
	return out
}

// Types returns the mode types in catalog order.
func Types() []model.ModeType {
	return append([]model.ModeType(nil), order...)
}

// DefaultSettings returns the settings an activation of t starts with.
func DefaultSettings(t model.ModeType) model.ModeSettings {
	def := Get(t)
	return model.ModeSettings{
		AutoSilence:   def.AutoSilenceDefault,
		AutoReply:     def.AutoReplyDefault,
		CustomMessage: def.DefaultMessage,
	}
}
