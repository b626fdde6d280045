package leads

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/leads-import-worker/internal/entity"
)

// Column aliases, matched against normalized header names in order.
var (
	fullNameKeys     = []string{"full_name", "name", "fullname"}
	emailKeys        = []string{"email", "email_address", "e_mail"}
	phoneKeys        = []string{"phone_number", "phone", "mobile", "telephone"}
	cityKeys         = []string{"city"}
	platformKeys     = []string{"platform"}
	leadStatusKeys   = []string{"lead_status", "status"}
	adIDKeys         = []string{"ad_id"}
	adNameKeys       = []string{"ad_name"}
	adsetIDKeys      = []string{"adset_id", "ad_set_id"}
	campaignIDKeys   = []string{"campaign_id"}
	campaignNameKeys = []string{"campaign_name"}
	formIDKeys       = []string{"form_id"}
	pageIDKeys       = []string{"page_id"}
	timestampKeys    = []string{"timestamp_utc", "timestamp"}
	dateKeys         = []string{"date"}
	createdTimeKeys  = []string{"created_time", "created_at"}
)

// Normalize maps one raw spreadsheet row into a Lead. It never fails.
func Normalize(row map[string]any, jobID uuid.UUID) entity.Lead {
	r := indexRow(row)
	return entity.Lead{
		ImportJobID: jobID.String(),

		FullName:    r.str(fullNameKeys),
		Email:       r.str(emailKeys),
		PhoneNumber: r.str(phoneKeys),
		City:        r.str(cityKeys),
		Platform:    r.str(platformKeys),
		LeadStatus:  r.str(leadStatusKeys),

		AdID:         r.optional(adIDKeys),
		AdName:       r.optional(adNameKeys),
		AdsetID:      r.optional(adsetIDKeys),
		CampaignID:   r.optional(campaignIDKeys),
		CampaignName: r.optional(campaignNameKeys),
		FormID:       r.optional(formIDKeys),
		PageID:       r.optional(pageIDKeys),

		TimestampUTC: CoerceTimestamp(r.value(timestampKeys)),
		Date:         CoerceTimestamp(r.value(dateKeys)),
		CreatedTime:  CoerceTimestamp(r.value(createdTimeKeys)),
	}
}

// NormalizeAll normalizes rows in order.
func NormalizeAll(rows []map[string]any, jobID uuid.UUID) []entity.Lead {
	out := make([]entity.Lead, len(rows))
	for i, row := range rows {
		out[i] = Normalize(row, jobID)
	}
	return out
}

type indexedRow struct {
	row  map[string]any
	keys map[string]string // normalized header -> original header
}

func indexRow(row map[string]any) indexedRow {
	keys := make(map[string]string, len(row))
	for k := range row {
		nk := NormalizeHeader(k)
		// first spelling wins when two headers collapse to the same key
		if prev, ok := keys[nk]; !ok || k < prev {
			keys[nk] = k
		}
	}
	return indexedRow{row: row, keys: keys}
}

// value returns the first non-nil value found under any alias.
func (r indexedRow) value(aliases []string) any {
	for _, a := range aliases {
		if k, ok := r.keys[a]; ok {
			if v := r.row[k]; v != nil {
				return v
			}
		}
	}
	return nil
}

func (r indexedRow) str(aliases []string) string {
	v := r.value(aliases)
	if v == nil {
		return ""
	}
	return Stringify(v)
}

func (r indexedRow) optional(aliases []string) *string {
	v := r.value(aliases)
	if v == nil {
		return nil
	}
	s := Stringify(v)
	return &s
}

// Stringify renders a cell value the way it reads in the sheet.
func Stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// NormalizeHeader lowercases a header and folds punctuation into single underscores,
// so "Timestamp (UTC)" and "timestamp_utc" compare equal.
func NormalizeHeader(h string) string {
	var b strings.Builder
	b.Grow(len(h))
	underscore := false
	for _, r := range strings.TrimSpace(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
