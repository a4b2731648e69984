package app

import "github.com/nhle/volunteer-board/internal/keys"

// KeyMap is the keys package map, shared by every view.
type KeyMap = keys.KeyMap

// DefaultKeyMap delegates to keys.DefaultKeyMap.
func DefaultKeyMap() *KeyMap {
	return keys.DefaultKeyMap()
}
