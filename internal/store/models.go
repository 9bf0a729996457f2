package store

// memberRow is authority_member's on-disk row shape, column order frozen to
// match the original implementation's SELECT list (identifier, attributes,
// added_by, added_at, expires_at, is_pre_trusted). A previous version of
// this system bound an INSERT's positional placeholders against a different
// column order than its own SELECT, silently writing added_by's value into
// the attributes column; naming every column on both sides of sqlstore.go's
// queries is what rules that class of bug out here.
type memberRow struct {
	Identifier   string `gorm:"column:identifier;primaryKey"`
	Attributes   []byte `gorm:"column:attributes"`
	AddedBy      *string `gorm:"column:added_by"`
	AddedAt      int64  `gorm:"column:added_at"`
	ExpiresAt    *int64 `gorm:"column:expires_at"`
	IsPreTrusted bool   `gorm:"column:is_pre_trusted"`
}

func (memberRow) TableName() string { return "authority_member" }

// tokenRow is authority_enrollment_token's on-disk row shape.
type tokenRow struct {
	OneTimeCode string `gorm:"column:one_time_code;primaryKey"`
	IssuedBy    string `gorm:"column:issued_by"`
	CreatedAt   int64  `gorm:"column:created_at"`
	ExpiresAt   int64  `gorm:"column:expires_at"`
	TTLCount    int64  `gorm:"column:ttl_count"`
	Attributes  []byte `gorm:"column:attributes"`
}

func (tokenRow) TableName() string { return "authority_enrollment_token" }
