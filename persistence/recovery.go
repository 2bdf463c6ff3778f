package persistence

import (
	"fmt"
	"os"
)

// Action is the outcome of the recovery decision for one database path.
type Action int

const (
	// ActionNone means the main file is authoritative and nothing is staged.
	ActionNone Action = iota
	// ActionDeleteTemp means the main file is authoritative and a leftover
	// staging file from an interrupted or completed commit must be removed.
	ActionDeleteTemp
	// ActionPromoteTemp means the commit crashed after staging but before
	// publishing; the staging file carries the only valid state and is
	// renamed onto the main path.
	ActionPromoteTemp
	// ActionFresh means neither file exists: a database has never been
	// created here. Creation is the caller's decision, not recovery's.
	ActionFresh
	// ActionFail means no readable state exists where one was expected.
	ActionFail
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionDeleteTemp:
		return "delete-temp"
	case ActionPromoteTemp:
		return "promote-temp"
	case ActionFresh:
		return "fresh"
	case ActionFail:
		return "fail"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Decide is the pure recovery decision: given which of the two files exist
// and which of those parse as a valid state, it picks the action. Keeping it
// free of I/O makes the full truth table testable without a filesystem.
func Decide(mainExists, mainValid, tempExists, tempValid bool) Action {
	switch {
	case mainValid && !tempExists:
		return ActionNone
	case mainValid && tempExists:
		// The staging file is either a completed commit's leftover or an
		// interrupted write; the published main file wins either way.
		return ActionDeleteTemp
	case !mainValid && tempValid:
		return ActionPromoteTemp
	case !mainExists && !tempExists:
		return ActionFresh
	default:
		return ActionFail
	}
}

// Recover inspects the database path and its staging sibling, applies the
// decided action, and returns it. It runs once on every open, before any
// state is loaded.
func (s *Store) Recover() (Action, error) {
	mainExists, mainValid := s.probe(s.path)
	tempExists, tempValid := s.probe(s.TempPath())

	action := Decide(mainExists, mainValid, tempExists, tempValid)

	switch action {
	case ActionNone, ActionFresh:
		return action, nil

	case ActionDeleteTemp:
		if err := s.fsys.Remove(s.TempPath()); err != nil && !os.IsNotExist(err) {
			return action, fmt.Errorf("persistence: remove stale staging file %s: %w", s.TempPath(), err)
		}
		return action, nil

	case ActionPromoteTemp:
		if err := s.fsys.Rename(s.TempPath(), s.path); err != nil {
			return action, fmt.Errorf("persistence: promote staging file %s: %w", s.TempPath(), err)
		}
		return action, nil

	default:
		tempPath := ""
		if tempExists {
			tempPath = s.TempPath()
		}
		return action, &ErrCorrupted{Path: s.path, TempPath: tempPath}
	}
}

// probe reports whether the file at path exists and whether it parses as a
// valid state.
func (s *Store) probe(path string) (exists, valid bool) {
	if _, err := s.fsys.Stat(path); err != nil {
		return false, false
	}
	_, err := s.parseFile(path)
	return true, err == nil
}
