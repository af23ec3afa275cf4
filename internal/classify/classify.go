// Package classify decides whether a raw channel message is a countable
// target-bot event.
//
// Rules run in a fixed order and the first definitive verdict wins:
// housekeeping subtypes, app id match, bot name match, human actor, default.
package classify

import (
	"recapbot/internal/model"
	"recapbot/internal/util"
)

// Verdict is the outcome of a single rule.
type Verdict int

const (
	Undecided Verdict = iota
	Count
	Skip
)

// Rule inspects an event and either decides or passes.
type Rule func(e model.RawEvent) Verdict

// housekeeping subtypes are never counted regardless of actor.
var housekeeping = map[string]struct{}{
	"channel_join":    {},
	"channel_leave":   {},
	"channel_topic":   {},
	"channel_purpose": {},
	"channel_name":    {},
	"message_deleted": {},
	"message_changed": {},
}

// Classifier is an ordered, immutable rule chain.
type Classifier struct {
	rules []Rule
}

// New builds the standard chain. appID may be empty; botName is matched
// case-insensitively as a substring.
func New(appID, botName string) *Classifier {
	return &Classifier{rules: []Rule{
		SkipHousekeeping,
		MatchAppID(appID),
		MatchBotName(botName),
		SkipHuman,
	}}
}

// IsTarget runs the chain; an event no rule decides is not counted.
func (c *Classifier) IsTarget(e model.RawEvent) bool {
	for _, r := range c.rules {
		switch r(e) {
		case Count:
			return true
		case Skip:
			return false
		}
	}
	return false
}

func SkipHousekeeping(e model.RawEvent) Verdict {
	if _, ok := housekeeping[e.Subtype]; ok {
		return Skip
	}
	return Undecided
}

// MatchAppID counts events whose bot profile carries appID. With no appID configured it never decides.
func MatchAppID(appID string) Rule {
	return func(e model.RawEvent) Verdict {
		if appID != "" && e.BotProfile != nil && e.BotProfile.AppID == appID {
			return Count
		}
		return Undecided
	}
}

// MatchBotName counts events where any name field contains name, case-folded.
func MatchBotName(name string) Rule {
	needle := util.Fold(name)
	return func(e model.RawEvent) Verdict {
		if needle == "" {
			return Undecided
		}
		candidates := []string{e.Username}
		if bp := e.BotProfile; bp != nil {
			candidates = append(candidates, bp.Name, bp.Username)
		}
		if util.ContainsFold(candidates, needle) {
			return Count
		}
		return Undecided
	}
}

func SkipHuman(e model.RawEvent) Verdict {
	if e.User != "" {
		return Skip
	}
	return Undecided
}
