package services

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/hba-portal/membership-backend/v1/models"
)

// FieldChange is one proposed field edit: the current value and the value the
// request wants to set
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// SnapshotFieldChanged reports whether a proposed field value differs from the
// stored one. A nil proposed value is never a change; values are compared by
// their JSON encoding so nested structs diff the same way they render.
func SnapshotFieldChanged(oldVal, newVal interface{}) bool {
	if isNilPointer(newVal) {
		return false
	}
	if isNilPointer(oldVal) {
		return true
	}
	oldJSON, err := json.Marshal(oldVal)
	if err != nil {
		return true
	}
	newJSON, err := json.Marshal(newVal)
	if err != nil {
		return true
	}
	return !bytes.Equal(oldJSON, newJSON)
}

// SnapshotChanges computes the field-level diff between a request's old and
// new snapshots, keyed by the field's JSON name. Fields the request does not
// set are omitted.
func SnapshotChanges(old, new models.BusinessSnapshot) map[string]FieldChange {
	changes := make(map[string]FieldChange)

	t := reflect.TypeOf(old)
	oldV := reflect.ValueOf(old)
	newV := reflect.ValueOf(new)

	for i := 0; i < t.NumField(); i++ {
		newField := newV.Field(i)
		if newField.IsNil() {
			continue
		}

		oldField := oldV.Field(i)
		if !oldField.IsNil() && !SnapshotFieldChanged(oldField.Interface(), newField.Interface()) {
			continue
		}

		var oldValue interface{}
		if !oldField.IsNil() {
			oldValue = oldField.Elem().Interface()
		}
		changes[jsonFieldName(t.Field(i))] = FieldChange{
			Old: oldValue,
			New: newField.Elem().Interface(),
		}
	}

	return changes
}

// MergeSnapshots overlays the set fields of overlay onto base. A nil overlay
// field leaves the base field untouched, so repeated submissions accumulate
// into one proposal instead of discarding earlier edits. Nested address,
// contact, and social objects merge field by field, so a resubmission that
// sets one nested field keeps the nested fields accumulated before it.
func MergeSnapshots(base, overlay models.BusinessSnapshot) models.BusinessSnapshot {
	merged := base
	mergedV := reflect.ValueOf(&merged).Elem()
	overlayV := reflect.ValueOf(overlay)

	for i := 0; i < mergedV.NumField(); i++ {
		if !overlayV.Field(i).IsNil() {
			mergedV.Field(i).Set(overlayV.Field(i))
		}
	}

	merged.PhysicalAddress = mergeAddress(base.PhysicalAddress, overlay.PhysicalAddress)
	merged.MailingAddress = mergeAddress(base.MailingAddress, overlay.MailingAddress)
	merged.PointOfContact = mergePointOfContact(base.PointOfContact, overlay.PointOfContact)
	merged.SocialMediaHandles = mergeSocialMediaHandles(base.SocialMediaHandles, overlay.SocialMediaHandles)

	return merged
}

// mergeAddress combines two partial addresses. An empty overlay field keeps
// the base value; the originals are never mutated.
func mergeAddress(base, overlay *models.Address) *models.Address {
	if base == nil {
		return overlay
	}
	if overlay == nil {
		return base
	}
	merged := *base
	if overlay.Address != "" {
		merged.Address = overlay.Address
	}
	if overlay.City != "" {
		merged.City = overlay.City
	}
	if overlay.State != "" {
		merged.State = overlay.State
	}
	if overlay.ZipCode != "" {
		merged.ZipCode = overlay.ZipCode
	}
	return &merged
}

func mergePointOfContact(base, overlay *models.PointOfContact) *models.PointOfContact {
	if base == nil {
		return overlay
	}
	if overlay == nil {
		return base
	}
	merged := *base
	if overlay.Name != "" {
		merged.Name = overlay.Name
	}
	if overlay.PhoneNumber != "" {
		merged.PhoneNumber = overlay.PhoneNumber
	}
	if overlay.Email != "" {
		merged.Email = overlay.Email
	}
	return &merged
}

func mergeSocialMediaHandles(base, overlay *models.SocialMediaHandles) *models.SocialMediaHandles {
	if base == nil {
		return overlay
	}
	if overlay == nil {
		return base
	}
	merged := *base
	if overlay.Facebook != "" {
		merged.Facebook = overlay.Facebook
	}
	if overlay.Instagram != "" {
		merged.Instagram = overlay.Instagram
	}
	if overlay.Twitter != "" {
		merged.Twitter = overlay.Twitter
	}
	if overlay.LinkedIn != "" {
		merged.LinkedIn = overlay.LinkedIn
	}
	return &merged
}

// ApplySnapshot writes the set fields of a snapshot onto a business record.
// Nil fields are left unchanged.
func ApplySnapshot(business *models.Business, snap models.BusinessSnapshot) {
	if snap.BusinessName != nil {
		business.BusinessName = *snap.BusinessName
	}
	if snap.BusinessOwner != nil {
		business.BusinessOwner = *snap.BusinessOwner
	}
	if snap.OrganizationType != nil {
		business.OrganizationType = *snap.OrganizationType
	}
	if snap.BusinessType != nil {
		business.BusinessType = *snap.BusinessType
	}
	if snap.BusinessScale != nil {
		business.BusinessScale = *snap.BusinessScale
	}
	if snap.NumberOfEmployees != nil {
		business.NumberOfEmployees = *snap.NumberOfEmployees
	}
	if snap.Gender != nil {
		business.Gender = *snap.Gender
	}
	if snap.Website != nil {
		business.Website = *snap.Website
	}
	if snap.Description != nil {
		business.Description = *snap.Description
	}
	if snap.PhysicalAddress != nil {
		business.PhysicalAddress = *snap.PhysicalAddress
	}
	if snap.MailingAddress != nil {
		business.MailingAddress = *snap.MailingAddress
	}
	if snap.PointOfContact != nil {
		business.PointOfContact = *snap.PointOfContact
	}
	if snap.SocialMediaHandles != nil {
		business.SocialMediaHandles = *snap.SocialMediaHandles
	}
	if snap.LogoUrl != nil {
		business.LogoUrl = *snap.LogoUrl
	}
	if snap.BannerUrl != nil {
		business.BannerUrl = *snap.BannerUrl
	}
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		return f.Name
	}
	return name
}

func isNilPointer(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
