package models

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func numPtr(n int) *int { return &n }

func TestBusinessSnapshot_Scan(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    BusinessSnapshot
		wantErr bool
	}{
		{
			name:    "nil value",
			value:   nil,
			want:    BusinessSnapshot{},
			wantErr: false,
		},
		{
			name:  "valid JSON bytes",
			value: []byte(`{"businessName":"Mi Tierra","website":"https://mitierra.example.com"}`),
			want: BusinessSnapshot{
				BusinessName: strPtr("Mi Tierra"),
				Website:      strPtr("https://mitierra.example.com"),
			},
			wantErr: false,
		},
		{
			name:  "valid JSON string",
			value: `{"numberOfEmployees":12}`,
			want: BusinessSnapshot{
				NumberOfEmployees: numPtr(12),
			},
			wantErr: false,
		},
		{
			name:  "nested point of contact",
			value: []byte(`{"pointOfContact":{"name":"Maria Lopez","email":"maria@example.com"}}`),
			want: BusinessSnapshot{
				PointOfContact: &PointOfContact{Name: "Maria Lopez", Email: "maria@example.com"},
			},
			wantErr: false,
		},
		{
			name:    "invalid type",
			value:   123,
			want:    BusinessSnapshot{},
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			value:   []byte(`invalid json`),
			want:    BusinessSnapshot{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var bs BusinessSnapshot
			err := bs.Scan(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, bs)
			}
		})
	}
}

func TestBusinessSnapshot_Value(t *testing.T) {
	bs := BusinessSnapshot{
		BusinessName: strPtr("Zapata Auto"),
		BusinessType: strPtr("Automotive"),
	}

	value, err := bs.Value()
	assert.NoError(t, err)
	assert.NotNil(t, value)

	var result BusinessSnapshot
	err = json.Unmarshal(value.([]byte), &result)
	assert.NoError(t, err)
	assert.Equal(t, bs, result)
}

func TestBusinessSnapshot_GormDataType(t *testing.T) {
	var bs BusinessSnapshot
	assert.Equal(t, "jsonb", bs.GormDataType())
}

func TestBusinessSnapshot_GormValue(t *testing.T) {
	bs := BusinessSnapshot{BusinessName: strPtr("Zapata Auto")}

	// Without a dialector the expression is a plain placeholder
	expr := bs.GormValue(context.Background(), nil)
	assert.Equal(t, "?", expr.SQL)
	require.Len(t, expr.Vars, 1)

	var result BusinessSnapshot
	err := json.Unmarshal([]byte(expr.Vars[0].(string)), &result)
	assert.NoError(t, err)
	assert.Equal(t, bs, result)
}

func TestAddress_ScanValue(t *testing.T) {
	addr := Address{
		Address: "123 Main St",
		City:    "San Antonio",
		State:   "TX",
		ZipCode: "78205",
	}

	value, err := addr.Value()
	assert.NoError(t, err)

	var scanned Address
	assert.NoError(t, scanned.Scan(value))
	assert.Equal(t, addr, scanned)

	var empty Address
	assert.NoError(t, empty.Scan(nil))
	assert.Equal(t, Address{}, empty)
}

func TestSocialMediaHandles_ScanValue(t *testing.T) {
	handles := SocialMediaHandles{
		Facebook:  "https://facebook.com/mitierra",
		Instagram: "https://instagram.com/mitierra",
	}

	value, err := handles.Value()
	assert.NoError(t, err)

	var scanned SocialMediaHandles
	assert.NoError(t, scanned.Scan(value))
	assert.Equal(t, handles, scanned)
}

func TestStringList_Scan(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    StringList
		wantErr bool
	}{
		{
			name:    "nil value",
			value:   nil,
			want:    StringList{},
			wantErr: false,
		},
		{
			name:    "valid JSON bytes",
			value:   []byte(`["flyer.pdf","agenda.docx"]`),
			want:    StringList{"flyer.pdf", "agenda.docx"},
			wantErr: false,
		},
		{
			name:    "invalid type",
			value:   123,
			want:    StringList{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sl StringList
			err := sl.Scan(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, sl)
			}
		})
	}
}

func TestRecipientFilter_ScanValue(t *testing.T) {
	rf := RecipientFilter{
		DirectlyTo:   []string{"maria@example.com"},
		BusinessType: "Restaurant",
	}

	value, err := rf.Value()
	assert.NoError(t, err)

	var scanned RecipientFilter
	assert.NoError(t, scanned.Scan(value))
	assert.Equal(t, rf, scanned)
}

func TestFlexibleStringSlice_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    FlexibleStringSlice
		wantErr bool
	}{
		{
			name: "string array",
			data: `["HBA_Admin","HBA_Member"]`,
			want: FlexibleStringSlice{"HBA_Admin", "HBA_Member"},
		},
		{
			name: "single string",
			data: `"HBA_Member"`,
			want: FlexibleStringSlice{"HBA_Member"},
		},
		{
			name:    "empty string rejected",
			data:    `""`,
			wantErr: true,
		},
		{
			name:    "array with empty string rejected",
			data:    `["HBA_Member",""]`,
			wantErr: true,
		},
		{
			name:    "number rejected",
			data:    `123`,
			wantErr: true,
		},
		{
			name:    "string with null byte rejected",
			data:    `"HBA\u0000Member"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexibleStringSlice
			err := json.Unmarshal([]byte(tt.data), &f)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, f)
			}
		})
	}
}

func TestFlexibleStringSlice_ToStringSlice(t *testing.T) {
	f := FlexibleStringSlice{"a", "b"}
	assert.Equal(t, []string{"a", "b"}, f.ToStringSlice())
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "businesses", Business{}.TableName())
	assert.Equal(t, "change_requests", ChangeRequest{}.TableName())
	assert.Equal(t, "request_history", RequestHistory{}.TableName())
	assert.Equal(t, "signup_requests", SignupRequest{}.TableName())
	assert.Equal(t, "email_jobs", EmailJob{}.TableName())
	assert.Equal(t, "sent_messages", SentMessage{}.TableName())
	assert.Equal(t, "admin_mailing_address", MailingAddress{}.TableName())
}
