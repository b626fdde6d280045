package entity

// Lead is the normalized record shape accepted by bulk_insert_leads.
// Optional identifiers are nil when the source column is absent.
type Lead struct {
	ImportJobID string `json:"import_job_id"`

	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	City        string `json:"city"`
	Platform    string `json:"platform"`
	LeadStatus  string `json:"lead_status"`

	AdID         *string `json:"ad_id"`
	AdName       *string `json:"ad_name"`
	AdsetID      *string `json:"adset_id"`
	CampaignID   *string `json:"campaign_id"`
	CampaignName *string `json:"campaign_name"`
	FormID       *string `json:"form_id"`
	PageID       *string `json:"page_id"`

	// ISO-8601 UTC or nil when the value could not be coerced.
	TimestampUTC *string `json:"timestamp_utc"`
	Date         *string `json:"date"`
	CreatedTime  *string `json:"created_time"`
}
