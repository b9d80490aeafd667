package documents

// Document models a stored text document. The creation date is the
// client-supplied string recorded at upload time.
type Document struct {
	FileID      string `gorm:"column:file_id;primaryKey;size:190;not null"`
	OwnerID     string `gorm:"column:owner_id;size:190;not null;index:idx_documents_owner"`
	FileName    string `gorm:"column:file_name;size:320;not null"`
	Content     string `gorm:"column:content;type:text;not null;default:''"`
	DateCreated string `gorm:"column:date_created;size:64;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Document) TableName() string {
	return "documents"
}

// Share grants a user read and save access to a document it does not own.
type Share struct {
	FileID string `gorm:"column:file_id;primaryKey;size:190;not null"`
	UserID string `gorm:"column:user_id;primaryKey;size:190;not null;index:idx_shares_user"`
}

// TableName provides the explicit table binding for GORM.
func (Share) TableName() string {
	return "document_shares"
}

// Descriptor is the document summary returned by list and create operations.
type Descriptor struct {
	FileID      string   `json:"fileId"`
	OwnerID     string   `json:"ownerId"`
	FileName    string   `json:"fileName"`
	DateCreated string   `json:"dateCreated"`
	SharedUsers []string `json:"sharedUsers"`
}
