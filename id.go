package startflow

import "github.com/xraph/startflow/id"

// ID is the primary identifier type for all startflow entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
