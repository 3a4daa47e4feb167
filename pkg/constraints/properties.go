package constraints

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Current constraint document schema version.
const (
	SchemaMajorVersion = 1
	SchemaMinorVersion = 2
)

// Properties carries dataset-level metadata alongside the constraint
// collections. The engine passes it through unmodified; only the wire layer
// touches it.
type Properties struct {
	SchemaMajorVersion uint32
	SchemaMinorVersion uint32
	SessionID          string
	SessionTimestamp   time.Time
	DataTimestamp      time.Time
	Tags               map[string]string
	Metadata           map[string]string
}

// NewProperties stamps fresh dataset properties: current schema version, a
// random session id, and a session timestamp from the supplied clock.
func NewProperties(clock clockwork.Clock, dataTimestamp time.Time, tags, metadata map[string]string) Properties {
	return Properties{
		SchemaMajorVersion: SchemaMajorVersion,
		SchemaMinorVersion: SchemaMinorVersion,
		SessionID:          uuid.NewString(),
		SessionTimestamp:   clock.Now().UTC(),
		DataTimestamp:      dataTimestamp.UTC(),
		Tags:               tags,
		Metadata:           metadata,
	}
}
