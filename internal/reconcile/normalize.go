package reconcile

import (
	"strings"

	"github.com/mobiusengine/leads-engine/internal/models"
)

// columnNames maps the CSV header names used by the lead export files to
// canonical field names. Unknown headers fall back to lower_snake_case.
var columnNames = map[string]string{
	"First Name":      "first_name",
	"Last Name":       "last_name",
	"Headline":        "headline",
	"Location":        "location",
	"Current Title":   "current_title",
	"Current Company": "current_company",
	"Email Address":   "email_address",
	"Phone Number":    "phone_number",
	"Profile URL":     "profile_url",
	"Active Project":  "active_project",
	"Notes":           "notes",
	"Feedback":        "feedback",
}

func normalizeColumnName(name string) string {
	if mapped, ok := columnNames[name]; ok {
		return mapped
	}
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// NormalizeRow turns one raw CSV row into a candidate Lead. All values are
// trimmed of surrounding whitespace; an empty value and a missing column are
// equivalent. A row without a profile URL is rejected with a
// *models.ValidationError and must be counted as failed by the caller.
func NormalizeRow(row models.RawRow) (*models.Lead, error) {
	data := make(map[string]string, len(row))
	for name, value := range row {
		data[normalizeColumnName(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	if data["profile_url"] == "" {
		return nil, &models.ValidationError{Message: "missing profile URL"}
	}

	return &models.Lead{
		FirstName:      data["first_name"],
		LastName:       data["last_name"],
		Headline:       data["headline"],
		Location:       data["location"],
		CurrentTitle:   data["current_title"],
		CurrentCompany: data["current_company"],
		EmailAddress:   data["email_address"],
		PhoneNumber:    data["phone_number"],
		ProfileURL:     data["profile_url"],
		ActiveProject:  data["active_project"],
		Notes:          data["notes"],
		Feedback:       data["feedback"],
	}, nil
}
