package introspect

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"erdgraph/internal/dialect"
)

// ErrUnsupportedClassification is returned for dialects without a type vocabulary.
var ErrUnsupportedClassification = errors.New("type classification not supported for dialect")

var postgresTypes = map[string]Kind{
	"character varying": KindText,
	"varchar":           KindText,
	"character":         KindText,
	"char":              KindText,
	"text":              KindText,
	"citext":            KindText,
	"name":              KindText,

	"smallint":         KindNumeric,
	"integer":          KindNumeric,
	"bigint":           KindNumeric,
	"numeric":          KindNumeric,
	"decimal":          KindNumeric,
	"real":             KindNumeric,
	"double precision": KindNumeric,

	"boolean": KindBoolean,

	"date":                        KindDate,
	"time without time zone":      KindTime,
	"time with time zone":         KindTime,
	"timestamp without time zone": KindDateTime,
	"timestamp with time zone":    KindDateTimeWithTZ,

	"uuid":  KindUUID,
	"json":  KindJSON,
	"jsonb": KindJSON,
}

var (
	vocabMu      sync.RWMutex
	vocabularies = map[dialect.ID]map[string]Kind{
		dialect.PostgreSQL: postgresTypes,
		dialect.PGX:        postgresTypes,
	}
)

// Classify maps a raw catalog type name to its Kind. Unrecognised names are KindUnknown; a dialect
// with no vocabulary at all is an error.
func Classify(d dialect.ID, raw string) (Kind, error) {
	vocabMu.RLock()
	defer vocabMu.RUnlock()
	vocab, ok := vocabularies[d]
	if !ok {
		return KindUnknown, fmt.Errorf("%w: %s", ErrUnsupportedClassification, d)
	}
	if k, ok := vocab[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return k, nil
	}
	return KindUnknown, nil
}

// RegisterVocabulary adds raw type spellings for d. Spellings that are already mapped keep their
// existing Kind.
func RegisterVocabulary(d dialect.ID, types map[string]Kind) {
	vocabMu.Lock()
	defer vocabMu.Unlock()
	old := vocabularies[d]
	merged := make(map[string]Kind, len(old)+len(types))
	for raw, k := range types {
		merged[strings.ToLower(strings.TrimSpace(raw))] = k
	}
	for raw, k := range old {
		merged[raw] = k
	}
	vocabularies[d] = merged
}
