package models

// Media is a media attachment referenced by an item. Files are not copied;
// the source URL identifies the original.
type Media struct {
	ID        int64               `gorm:"primaryKey" json:"id"`
	ItemID    int64               `gorm:"not null;index:idx_media_item" json:"itemId"`
	SourceURL string              `gorm:"type:text;not null" json:"sourceUrl"`
	Title     string              `gorm:"type:text" json:"title"`
	Caption   string              `gorm:"type:text" json:"caption"`
	AltText   string              `gorm:"type:text" json:"altText"`
	MimeType  string              `gorm:"type:varchar(100)" json:"mimeType"`
	Featured  bool                `gorm:"not null;default:false" json:"featured"`
	Position  int                 `gorm:"not null;default:0" json:"position"`
	Meta      map[string][]string `gorm:"serializer:json;type:text" json:"meta,omitempty"`
}

// TableName specifies the table name.
func (Media) TableName() string {
	return "media"
}
