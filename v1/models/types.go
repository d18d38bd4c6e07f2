package models

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// jsonbValue marshals v and wraps it in a jsonb cast expression on postgres.
// SQLite (tests) stores the same payload as TEXT.
func jsonbValue(db *gorm.DB, v interface{}) clause.Expr {
	data, err := json.Marshal(v)
	if err != nil {
		// Marshaling these value types should never fail; panic instead of
		// silently persisting a corrupt column
		panic(fmt.Sprintf("Failed to marshal %T to JSON: %v", v, err))
	}
	sql := "?"
	if db != nil && db.Dialector.Name() == "postgres" {
		sql = "?::jsonb"
	}
	return clause.Expr{
		SQL:  sql,
		Vars: []interface{}{string(data)},
	}
}

// scanJSON decodes a jsonb column value into dest
func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, dest)
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dest)
}

// Address represents a postal address stored as a jsonb column
type Address struct {
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

func (a *Address) Scan(value interface{}) error { return scanJSON(value, a) }

func (a Address) Value() (driver.Value, error) { return json.Marshal(a) }

func (Address) GormDataType() string { return "jsonb" }

func (a Address) GormValue(ctx context.Context, db *gorm.DB) clause.Expr { return jsonbValue(db, a) }

// PointOfContact represents the designated contact person for a business
type PointOfContact struct {
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Email       string `json:"email,omitempty"`
}

func (p *PointOfContact) Scan(value interface{}) error { return scanJSON(value, p) }

func (p PointOfContact) Value() (driver.Value, error) { return json.Marshal(p) }

func (PointOfContact) GormDataType() string { return "jsonb" }

func (p PointOfContact) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return jsonbValue(db, p)
}

// SocialMediaHandles holds the optional social profile links for a business
type SocialMediaHandles struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

func (s *SocialMediaHandles) Scan(value interface{}) error { return scanJSON(value, s) }

func (s SocialMediaHandles) Value() (driver.Value, error) { return json.Marshal(s) }

func (SocialMediaHandles) GormDataType() string { return "jsonb" }

func (s SocialMediaHandles) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return jsonbValue(db, s)
}

// BusinessSnapshot is a partial copy of the business-core fields. All fields
// are optional; a nil field means "not captured / not changed". It is the
// payload type for request old/new snapshots, signup payloads, and patches.
type BusinessSnapshot struct {
	BusinessName       *string             `json:"businessName,omitempty"`
	BusinessOwner      *string             `json:"businessOwner,omitempty"`
	OrganizationType   *string             `json:"organizationType,omitempty"`
	BusinessType       *string             `json:"businessType,omitempty"`
	BusinessScale      *string             `json:"businessScale,omitempty"`
	NumberOfEmployees  *int                `json:"numberOfEmployees,omitempty"`
	Gender             *string             `json:"gender,omitempty"`
	Website            *string             `json:"website,omitempty"`
	Description        *string             `json:"description,omitempty"`
	PhysicalAddress    *Address            `json:"physicalAddress,omitempty"`
	MailingAddress     *Address            `json:"mailingAddress,omitempty"`
	PointOfContact     *PointOfContact     `json:"pointOfContact,omitempty"`
	SocialMediaHandles *SocialMediaHandles `json:"socialMediaHandles,omitempty"`
	LogoUrl            *string             `json:"logoUrl,omitempty"`
	BannerUrl          *string             `json:"bannerUrl,omitempty"`
}

func (bs *BusinessSnapshot) Scan(value interface{}) error { return scanJSON(value, bs) }

func (bs BusinessSnapshot) Value() (driver.Value, error) { return json.Marshal(bs) }

func (BusinessSnapshot) GormDataType() string { return "jsonb" }

func (bs BusinessSnapshot) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return jsonbValue(db, bs)
}

// StringList is a jsonb-backed string array (attachment names, recipient lists)
type StringList []string

func (sl *StringList) Scan(value interface{}) error {
	if value == nil {
		*sl = StringList{}
		return nil
	}
	return scanJSON(value, sl)
}

func (sl StringList) Value() (driver.Value, error) { return json.Marshal(sl) }

func (StringList) GormDataType() string { return "jsonb" }

func (sl StringList) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return jsonbValue(db, sl)
}

// RecipientFilter describes who a bulk message was sent to: an explicit
// address list, a business-type segment, or both
type RecipientFilter struct {
	DirectlyTo   []string `json:"directlyTo,omitempty"`
	BusinessType string   `json:"businessType,omitempty"`
}

func (rf *RecipientFilter) Scan(value interface{}) error { return scanJSON(value, rf) }

func (rf RecipientFilter) Value() (driver.Value, error) { return json.Marshal(rf) }

func (RecipientFilter) GormDataType() string { return "jsonb" }

func (rf RecipientFilter) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return jsonbValue(db, rf)
}

// FlexibleStringSlice can unmarshal both single string and string array from JSON
type FlexibleStringSlice []string

// UnmarshalJSON implements custom unmarshaling to handle both string and []string
func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	// Try to unmarshal as string array first
	var strArray []string
	arrayErr := json.Unmarshal(data, &strArray)
	if arrayErr == nil {
		if err := validateStringSlice(strArray); err != nil {
			return fmt.Errorf("invalid string array: %v", err)
		}
		*f = FlexibleStringSlice(strArray)
		return nil
	}

	// If that fails, try to unmarshal as single string
	var str string
	stringErr := json.Unmarshal(data, &str)
	if stringErr == nil {
		if err := validateString(str); err != nil {
			return fmt.Errorf("invalid string: %v", err)
		}
		*f = FlexibleStringSlice([]string{str})
		return nil
	}

	return fmt.Errorf("failed to unmarshal FlexibleStringSlice: cannot parse as []string (%v) or string (%v), data: %s",
		arrayErr, stringErr, string(data))
}

// ToStringSlice converts to regular string slice
func (f *FlexibleStringSlice) ToStringSlice() []string {
	return []string(*f)
}

// validateString validates a single string for security concerns
func validateString(s string) error {
	if len(s) == 0 {
		return fmt.Errorf("empty string not allowed")
	}

	const maxStringLength = 1024
	if len(s) > maxStringLength {
		return fmt.Errorf("string too long (max %d characters)", maxStringLength)
	}

	// Null bytes are a common injection vector
	for i, b := range []byte(s) {
		if b == 0 {
			return fmt.Errorf("null byte found at position %d", i)
		}
	}

	return nil
}

// validateStringSlice validates all strings in a slice
func validateStringSlice(slice []string) error {
	const maxArrayLength = 100
	if len(slice) > maxArrayLength {
		return fmt.Errorf("array too large (max %d elements)", maxArrayLength)
	}

	for i, s := range slice {
		if err := validateString(s); err != nil {
			return fmt.Errorf("invalid string at index %d: %v", i, err)
		}
	}

	return nil
}
