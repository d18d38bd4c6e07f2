package models

// CollectionResponse wraps list responses with a count
type CollectionResponse struct {
	Items interface{} `json:"items"`
	Count int         `json:"count"`
}

// SubmitRequestRequest is the body of POST /api/v1/requests. Only provided
// fields are merged into the open request; RequestID is optional and must
// reference the caller's own open request when present.
type SubmitRequestRequest struct {
	RequestID *string `json:"requestId,omitempty"`
	BusinessSnapshot
}

// DecideRequestRequest is the body of the approve/deny endpoints for both
// change requests and signup requests
type DecideRequestRequest struct {
	RequestID     string  `json:"requestId"`
	DenialMessage *string `json:"denialMessage,omitempty"`
}

// SubmitSignupRequest is the body of POST /api/v1/signups: the full
// business-core payload for a new member application
type SubmitSignupRequest struct {
	BusinessSnapshot
}

// UpdateBusinessRequest is the typed patch applied by PATCH
// /api/v1/businesses/{id}; nil fields are left unchanged
type UpdateBusinessRequest struct {
	BusinessSnapshot
}

// LogMessageRequest is the body of POST /api/v1/send-email/history
type LogMessageRequest struct {
	Subject     string          `json:"subject"`
	Body        string          `json:"body"`
	Attachments []string        `json:"attachments,omitempty"`
	Recipient   RecipientFilter `json:"recipient"`
}

// UpdateMailingAddressRequest is the body of PATCH /api/v1/mailing-address
type UpdateMailingAddressRequest struct {
	Address Address `json:"address"`
}

// PresignUploadRequest is the body of POST /api/v1/uploads/presign
type PresignUploadRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// PresignUploadResponse carries a presigned PUT URL plus the public URL the
// object will be served from after upload
type PresignUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Key       string `json:"key"`
}

// CreatePaymentLinkRequest is the body of POST /api/v1/payments.
// Amount is in the currency's smallest unit (cents).
type CreatePaymentLinkRequest struct {
	Amount int64  `json:"amount"`
	Title  string `json:"title"`
}

// PaymentLinkResponse carries the hosted checkout URL for a payment link
type PaymentLinkResponse struct {
	PaymentLinkID string `json:"paymentLinkId"`
	URL           string `json:"url"`
}

// AnalyticsSummary aggregates membership statistics for the admin dashboard
type AnalyticsSummary struct {
	TotalBusinesses    int            `json:"totalBusinesses"`
	ByOrganizationType map[string]int `json:"byOrganizationType"`
	ByBusinessType     map[string]int `json:"byBusinessType"`
	ActiveMemberships  int            `json:"activeMemberships"`
	ExpiredMemberships int            `json:"expiredMemberships"`
	OpenRequests       int            `json:"openRequests"`
	OpenSignups        int            `json:"openSignups"`
}
