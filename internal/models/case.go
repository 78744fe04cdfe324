package models

// Case is a litigation or administrative record tracked by the trust.
// Storage keys of attached blobs are internal and never serialized.
type Case struct {
	BaseModel
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	CaseNumber  string       `gorm:"type:varchar(100);not null;uniqueIndex" json:"caseNumber"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	DateFiled   Date         `gorm:"not null;index" json:"dateFiled"`
	Status      CaseStatus   `gorm:"type:varchar(50);not null;index" json:"status"`
	Priority    CasePriority `gorm:"type:varchar(20);not null;default:'Medium'" json:"priority"`

	CourtName string `gorm:"type:varchar(255)" json:"courtName,omitempty"`
	JudgeName string `gorm:"type:varchar(255)" json:"judgeName,omitempty"`
	Plaintiff string `gorm:"type:varchar(255)" json:"plaintiff,omitempty"`
	Defendant string `gorm:"type:varchar(255)" json:"defendant,omitempty"`
	CaseType  string `gorm:"type:varchar(100)" json:"caseType,omitempty"`

	DocumentURL  string `gorm:"type:varchar(1024)" json:"documentUrl,omitempty"`
	DocumentName string `gorm:"type:varchar(255)" json:"documentName,omitempty"`
	DocumentKey  string `gorm:"type:varchar(1024)" json:"-"`

	ImageURL     string `gorm:"type:varchar(1024)" json:"imageUrl,omitempty"`
	ImageName    string `gorm:"type:varchar(255)" json:"imageName,omitempty"`
	ImageKey     string `gorm:"type:varchar(1024)" json:"-"`
	ThumbnailURL string `gorm:"type:varchar(1024)" json:"thumbnailUrl,omitempty"`
	ThumbnailKey string `gorm:"type:varchar(1024)" json:"-"`
}

// TableName specifies the table name for Case
func (Case) TableName() string {
	return "court_cases"
}

// BlobKeys returns every storage key the case references.
func (c *Case) BlobKeys() []string {
	var keys []string
	for _, k := range []string{c.DocumentKey, c.ImageKey, c.ThumbnailKey} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// ClearDocument drops the attachment reference.
func (c *Case) ClearDocument() {
	c.DocumentURL, c.DocumentName, c.DocumentKey = "", "", ""
}

// ClearImage drops the image reference together with its thumbnail.
func (c *Case) ClearImage() {
	c.ImageURL, c.ImageName, c.ImageKey = "", "", ""
	c.ThumbnailURL, c.ThumbnailKey = "", ""
}

// Clone returns a copy safe to hand out of a store.
func (c *Case) Clone() *Case {
	cp := *c
	return &cp
}
