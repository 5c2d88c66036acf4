package source

import (
	"inventory-sync/core/schema"
	"inventory-sync/core/store"

	"go.uber.org/zap"
)

// document is the snapshot wire format shared by the file and object
// storage backends: record value maps grouped under their type name.
type document map[string][]map[string]any

// populate validates every record of the document against the registry and
// adds it to the store. A record that fails validation is logged and
// skipped; it never aborts the load. The number of skipped records is
// returned so callers can surface it.
func populate(registry *schema.Registry, st *store.Store, doc document, logger *zap.Logger) (int, error) {
	skipped := 0

	// Iterate in registry declaration order so parents land before their
	// children and repeated loads enumerate identically.
	for _, typeName := range registry.Types() {
		for _, values := range doc[typeName] {
			rec, err := registry.NewRecord(typeName, values)
			if err != nil {
				logger.Warn("skipping invalid record",
					zap.String("store", st.Name),
					zap.String("type", typeName),
					zap.Error(err))
				skipped++
				continue
			}
			if err := st.Add(rec); err != nil {
				return skipped, err
			}
		}
	}

	return skipped, nil
}
