package queuectl

import "github.com/manasamurali63/queuectl/id"

// ID is the primary identifier type for all queuectl entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
