package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StorageRecordModel is one row of the storage_records table.
type StorageRecordModel struct {
	Collection string         `gorm:"primaryKey;type:varchar(64)"`
	ID         string         `gorm:"primaryKey;type:varchar(64)"`
	Payload    datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"index"`
	UpdatedAt  time.Time
}

func (StorageRecordModel) TableName() string {
	return "storage_records"
}

// GormBackend keeps collections in a relational table, one row per record.
type GormBackend struct {
	db *gorm.DB
}

func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

// AutoMigrate creates the table when migrations are not run separately.
func (b *GormBackend) AutoMigrate() error {
	return b.db.AutoMigrate(&StorageRecordModel{})
}

func (b *GormBackend) Name() string { return "database" }

func (b *GormBackend) Load(ctx context.Context, collection string) ([]Record, bool, error) {
	var rows []StorageRecordModel
	if err := b.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}

	records := make([]Record, len(rows))
	for i := range rows {
		records[i] = toRecord(&rows[i])
	}
	return records, true, nil
}

func (b *GormBackend) LoadRecord(ctx context.Context, collection, id string) (Record, bool, error) {
	var row StorageRecordModel
	err := b.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return toRecord(&row), true, nil
}

func (b *GormBackend) HasCollection(ctx context.Context, collection string) (bool, error) {
	var n int64
	if err := b.db.WithContext(ctx).
		Model(&StorageRecordModel{}).
		Where("collection = ?", collection).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Save replaces the collection: rows absent from records are removed and the
// rest upserted, in one transaction.
func (b *GormBackend) Save(ctx context.Context, collection string, records []Record) error {
	now := time.Now().UTC()
	rows := make([]StorageRecordModel, len(records))
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
		rows[i] = StorageRecordModel{
			Collection: collection,
			ID:         r.ID,
			Payload:    datatypes.JSON(r.Data),
			CreatedAt:  r.CreatedAt,
			UpdatedAt:  now,
		}
	}

	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("collection = ?", collection)
		if len(ids) > 0 {
			del = del.Where("id NOT IN ?", ids)
		}
		if err := del.Delete(&StorageRecordModel{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "created_at", "updated_at"}),
		}).CreateInBatches(rows, 200).Error
	})
}

func toRecord(m *StorageRecordModel) Record {
	return Record{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		Data:      []byte(m.Payload),
	}
}
