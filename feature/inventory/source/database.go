package source

import (
	"context"
	"encoding/json"
	"fmt"

	"inventory-sync/core/schema"
	"inventory-sync/core/store"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InventoryObject is one destination record as stored in the database.
// Attribute maps and child id lists are kept as JSON columns so the table
// schema stays stable as the inventory schema evolves.
type InventoryObject struct {
	ID          uint   `gorm:"primaryKey"`
	ObjectType  string `gorm:"column:object_type;size:64;uniqueIndex:idx_object_identity"`
	UID         string `gorm:"column:uid;size:255;uniqueIndex:idx_object_identity"`
	Identifiers string `gorm:"column:identifiers;type:text"`
	Attrs       string `gorm:"column:attrs;type:text"`
	Children    string `gorm:"column:children;type:text"`
}

// TableName overrides the gorm default.
func (InventoryObject) TableName() string {
	return "inventory_objects"
}

// Database is the destination backend: it loads the stored inventory into a
// store and applies reconciliation operations back to the table.
type Database struct {
	db       *gorm.DB
	registry *schema.Registry
	logger   *zap.Logger
}

// NewDatabase wires the destination database backend and ensures the table
// exists.
func NewDatabase(db *gorm.DB, registry *schema.Registry, logger *zap.Logger) (*Database, error) {
	if err := db.AutoMigrate(&InventoryObject{}); err != nil {
		return nil, fmt.Errorf("failed to migrate inventory table: %w", err)
	}
	return &Database{db: db, registry: registry, logger: logger}, nil
}

// Load reads every stored row into a store named name. Rows are read in
// insertion order so repeated loads enumerate identically.
func (d *Database) Load(ctx context.Context, name string) (*store.Store, error) {
	var rows []InventoryObject
	if err := d.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load inventory rows: %w", err)
	}

	doc := make(document)
	skipped := 0
	for _, row := range rows {
		values, err := rowValues(row)
		if err != nil {
			d.logger.Warn("skipping unreadable row",
				zap.String("type", row.ObjectType),
				zap.String("unique_id", row.UID),
				zap.Error(err))
			skipped++
			continue
		}
		doc[row.ObjectType] = append(doc[row.ObjectType], values)
	}

	st := store.New(name)
	populateSkipped, err := populate(d.registry, st, doc, d.logger)
	if err != nil {
		return nil, err
	}
	if n := skipped + populateSkipped; n > 0 {
		d.logger.Warn("database contained invalid records", zap.Int("skipped", n))
	}

	return st, nil
}

// rowValues flattens a row's JSON columns back into the value map that
// schema.Registry.NewRecord expects.
func rowValues(row InventoryObject) (map[string]any, error) {
	values := make(map[string]any)

	for column, raw := range map[string]string{
		"identifiers": row.Identifiers,
		"attrs":       row.Attrs,
		"children":    row.Children,
	} {
		if raw == "" {
			continue
		}
		part := make(map[string]any)
		if err := json.Unmarshal([]byte(raw), &part); err != nil {
			return nil, fmt.Errorf("bad %s column: %w", column, err)
		}
		for name, value := range part {
			values[name] = value
		}
	}

	return values, nil
}

// Create inserts a new row for the given type. Part of reconcile.Adapter.
func (d *Database) Create(ctx context.Context, typeName string, ids, attrs map[string]any) error {
	spec, ok := d.registry.Type(typeName)
	if !ok {
		return fmt.Errorf("unknown type %q", typeName)
	}

	identifiers, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	attrData, err := json.Marshal(attrs)
	if err != nil {
		return err
	}

	row := InventoryObject{
		ObjectType:  typeName,
		UID:         spec.UniqueID(ids),
		Identifiers: string(identifiers),
		Attrs:       string(attrData),
	}
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert %s %s: %w", typeName, row.UID, err)
	}
	return nil
}

// Update rewrites the attrs column of an existing row with the record's
// attributes merged with the changed ones. Part of reconcile.Adapter.
func (d *Database) Update(ctx context.Context, rec *store.Record, changed map[string]any) error {
	merged := rec.Attrs()
	for name, value := range changed {
		merged[name] = value
	}
	attrData, err := json.Marshal(merged)
	if err != nil {
		return err
	}

	result := d.db.WithContext(ctx).Model(&InventoryObject{}).
		Where("object_type = ? AND uid = ?", rec.Type(), rec.ID()).
		Update("attrs", string(attrData))
	if result.Error != nil {
		return fmt.Errorf("failed to update %s %s: %w", rec.Type(), rec.ID(), result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no row for %s %s", rec.Type(), rec.ID())
	}
	return nil
}

// Delete removes the row of an existing record. Part of reconcile.Adapter.
func (d *Database) Delete(ctx context.Context, rec *store.Record) error {
	result := d.db.WithContext(ctx).
		Where("object_type = ? AND uid = ?", rec.Type(), rec.ID()).
		Delete(&InventoryObject{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s %s: %w", rec.Type(), rec.ID(), result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no row for %s %s", rec.Type(), rec.ID())
	}
	return nil
}

// SyncChildren rewrites the children column of every stored row from the
// reconciled store, so parent references created or dropped during a run
// survive the next load.
func (d *Database) SyncChildren(ctx context.Context, st *store.Store) error {
	for _, typeName := range d.registry.Types() {
		spec, _ := d.registry.Type(typeName)
		if len(spec.Children) == 0 {
			continue
		}

		for rec := range st.All(typeName) {
			children := make(map[string][]string, len(spec.Children))
			for _, child := range spec.Children {
				children[child] = rec.ChildIDs(child)
			}
			childData, err := json.Marshal(children)
			if err != nil {
				return err
			}

			err = d.db.WithContext(ctx).Model(&InventoryObject{}).
				Where("object_type = ? AND uid = ?", rec.Type(), rec.ID()).
				Update("children", string(childData)).Error
			if err != nil {
				return fmt.Errorf("failed to sync children of %s %s: %w", rec.Type(), rec.ID(), err)
			}
		}
	}
	return nil
}
