package models

import (
	"fmt"
	"strings"
)

// Action represents the lifecycle change that triggered a distribution
type Action string

const (
	ActionNew    Action = "NEW"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// ParseAction parses a string into an Action
// Returns an error if the action is unknown
func ParseAction(name string) (Action, error) {
	name = strings.ToUpper(strings.TrimSpace(name))

	validActions := []Action{
		ActionNew,
		ActionUpdate,
		ActionDelete,
	}

	for _, action := range validActions {
		if string(action) == name {
			return action, nil
		}
	}

	return "", fmt.Errorf("unknown publication action: %s", name)
}

// Verb returns the HTTP method used to deliver an event with this action.
// NEW publications are POSTed, UPDATEs are PUT, and DELETEs are sent as a
// bodyless DELETE.
func (a Action) Verb() string {
	switch a {
	case ActionUpdate:
		return "PUT"
	case ActionDelete:
		return "DELETE"
	default:
		return "POST"
	}
}
