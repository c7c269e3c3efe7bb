package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SchemaField describes one custom field on an invoice form.
// Metadata only; nothing is enforced at the database layer.
type SchemaField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// SchemaFields is a JSON-serialized field list stored in a single column.
type SchemaFields []SchemaField

// Value implements driver.Valuer.
func (f SchemaFields) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal schema fields: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (f *SchemaFields) Scan(src any) error {
	if src == nil {
		*f = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported schema fields type %T", src)
	}
	if len(data) == 0 {
		*f = nil
		return nil
	}
	return json.Unmarshal(data, f)
}

// InvoiceSchema is a named set of custom invoice form fields.
type InvoiceSchema struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Name   string       `gorm:"size:255;not null" json:"name"`
	Fields SchemaFields `gorm:"type:text" json:"fields"`
}

// GetUserID implements the Ownable interface.
func (s *InvoiceSchema) GetUserID() uint {
	return s.UserID
}
