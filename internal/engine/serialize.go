package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modkeep/modkeep/internal/mods"
)

// Action kinds as stored in the history table.
const (
	kindToggle      = "toggle"
	kindRename      = "rename"
	kindGroupChange = "group_change"
	kindReorder     = "reorder"
	kindRevertOrder = "revert_order"
	kindCompound    = "compound"
)

// StoredEntry is the durable form of one history entry. The payload
// carries the action's captured state; collaborators are re-injected
// when the entry is decoded.
type StoredEntry struct {
	ID          string
	Seq         int
	Kind        string
	Category    mods.Category
	Description string
	Payload     []byte
}

// HistoryStore persists the undo history across processes.
type HistoryStore interface {
	Load(ctx context.Context) ([]StoredEntry, int, error)
	Save(ctx context.Context, entries []StoredEntry, cursor int) error
}

type toggleState struct {
	Category         mods.Category `json:"category"`
	Key              string        `json:"key"`
	OldEnabled       bool          `json:"old_enabled"`
	NewEnabled       bool          `json:"new_enabled"`
	OldLocation      string        `json:"old_location"`
	NewLocation      string        `json:"new_location"`
	OldIndex         *int64        `json:"old_index,omitempty"`
	RememberedOld    *int64        `json:"remembered_old,omitempty"`
	PriorOrder       []string      `json:"prior_order,omitempty"`
	PreservePosition bool          `json:"preserve_position"`
}

type renameState struct {
	Category mods.Category `json:"category"`
	Key      string        `json:"key"`
	OldName  string        `json:"old_name"`
	NewName  string        `json:"new_name"`
}

type groupChangeState struct {
	Category mods.Category `json:"category"`
	Key      string        `json:"key"`
	OldGroup []string      `json:"old_group,omitempty"`
	NewGroup []string      `json:"new_group,omitempty"`
}

type reorderState struct {
	Category mods.Category `json:"category"`
	Key      string        `json:"key"`
	OldIndex int           `json:"old_index"`
	NewIndex int           `json:"new_index"`
}

type revertOrderState struct {
	Category mods.Category `json:"category"`
	Prior    []string      `json:"prior"`
	Target   []string      `json:"target"`
	Label    string        `json:"label"`
}

type childEnvelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type compoundState struct {
	Category mods.Category   `json:"category"`
	Label    string          `json:"label"`
	Children []childEnvelope `json:"children"`
}

func encodeAction(action Action) (string, []byte, error) {
	switch a := action.(type) {
	case *toggleAction:
		payload, err := json.Marshal(toggleState{
			Category:         a.category,
			Key:              a.key,
			OldEnabled:       a.oldEnabled,
			NewEnabled:       a.newEnabled,
			OldLocation:      a.oldLocation,
			NewLocation:      a.newLocation,
			OldIndex:         a.oldIndex,
			RememberedOld:    a.rememberedOld,
			PriorOrder:       a.priorOrder,
			PreservePosition: a.preservePosition,
		})
		return kindToggle, payload, err
	case *renameAction:
		payload, err := json.Marshal(renameState{
			Category: a.category,
			Key:      a.key,
			OldName:  a.oldName,
			NewName:  a.newName,
		})
		return kindRename, payload, err
	case *groupChangeAction:
		payload, err := json.Marshal(groupChangeState{
			Category: a.category,
			Key:      a.key,
			OldGroup: a.oldGroup,
			NewGroup: a.newGroup,
		})
		return kindGroupChange, payload, err
	case *reorderAction:
		payload, err := json.Marshal(reorderState{
			Category: a.category,
			Key:      a.key,
			OldIndex: a.oldIndex,
			NewIndex: a.newIndex,
		})
		return kindReorder, payload, err
	case *revertOrderAction:
		payload, err := json.Marshal(revertOrderState{
			Category: a.category,
			Prior:    a.prior,
			Target:   a.target,
			Label:    a.label,
		})
		return kindRevertOrder, payload, err
	case *compoundAction:
		state := compoundState{Category: a.category, Label: a.label}
		for _, child := range a.children {
			kind, payload, err := encodeAction(child)
			if err != nil {
				return "", nil, err
			}
			state.Children = append(state.Children, childEnvelope{Kind: kind, Payload: payload})
		}
		payload, err := json.Marshal(state)
		return kindCompound, payload, err
	default:
		return "", nil, fmt.Errorf("unknown action type %T", action)
	}
}

func decodeAction(d deps, kind string, payload []byte) (Action, error) {
	switch kind {
	case kindToggle:
		var s toggleState
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		return &toggleAction{
			d:                d,
			category:         s.Category,
			key:              s.Key,
			oldEnabled:       s.OldEnabled,
			newEnabled:       s.NewEnabled,
			oldLocation:      s.OldLocation,
			newLocation:      s.NewLocation,
			oldIndex:         s.OldIndex,
			rememberedOld:    s.RememberedOld,
			priorOrder:       s.PriorOrder,
			preservePosition: s.PreservePosition,
		}, nil
	case kindRename:
		var s renameState
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		return &renameAction{d: d, category: s.Category, key: s.Key, oldName: s.OldName, newName: s.NewName}, nil
	case kindGroupChange:
		var s groupChangeState
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		return &groupChangeAction{d: d, category: s.Category, key: s.Key, oldGroup: s.OldGroup, newGroup: s.NewGroup}, nil
	case kindReorder:
		var s reorderState
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		return &reorderAction{d: d, category: s.Category, key: s.Key, oldIndex: s.OldIndex, newIndex: s.NewIndex}, nil
	case kindRevertOrder:
		var s revertOrderState
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		return &revertOrderAction{d: d, category: s.Category, prior: s.Prior, target: s.Target, label: s.Label}, nil
	case kindCompound:
		var s compoundState
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		children := make([]Action, 0, len(s.Children))
		for _, env := range s.Children {
			child, err := decodeAction(d, env.Kind, env.Payload)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return &compoundAction{category: s.Category, children: children, label: s.Label}, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", kind)
	}
}
