package models

// RawExtraction is the unprocessed output of the OCR gateway: one field
// name to free-text mapping covering both card sides, plus an aggregate
// confidence for the whole document pair. Discarded once normalized.
type RawExtraction struct {
	Fields     map[string]string `json:"fields"`
	Confidence float64           `json:"confidence"`
}

// Raw field keys emitted by the OCR gateway.
const (
	FieldName             = "name"
	FieldRegisterNumber   = "register_number"
	FieldUniversity       = "university"
	FieldDepartment       = "department"
	FieldCourse           = "course"
	FieldValidityDate     = "validity_date"
	FieldDateOfIssue      = "date_of_issue"
	FieldDateOfBirth      = "date_of_birth"
	FieldBloodGroup       = "blood_group"
	FieldEmail            = "email"
	FieldContactNumber    = "contact_number"
	FieldAddress          = "address"
	FieldPermanentAddress = "permanent_address"
	FieldEmergencyContact = "emergency_contact"
)

// NormalizedIdentity holds the canonical fields read off the ID card.
// Every present field has passed its normalization rule; fields that
// could not be parsed are empty or carry the raw value per that field's
// degradation rule, never garbage.
type NormalizedIdentity struct {
	Name             string `json:"name"`
	RegisterNumber   string `json:"register_number"`
	University       string `json:"university,omitempty"`
	Department       string `json:"department,omitempty"`
	Course           string `json:"course,omitempty"`
	ValidityDate     string `json:"validity_date,omitempty"`
	DateOfIssue      string `json:"date_of_issue,omitempty"`
	DateOfBirth      string `json:"date_of_birth,omitempty"`
	BloodGroup       string `json:"blood_group,omitempty"`
	Email            string `json:"email,omitempty"`
	ContactNumber    string `json:"contact_number,omitempty"`
	Address          string `json:"address,omitempty"`
	PermanentAddress string `json:"permanent_address,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
	InferredYear     int    `json:"inferred_year"`
}

// ClaimedIdentity is the identity the user self-reports at registration.
// Supplied by the registration flow; read-only here.
type ClaimedIdentity struct {
	Name         string `json:"name"`
	UniversityID string `json:"university_id"`
	University   string `json:"university"`
	Stream       string `json:"stream"`
	Year         int    `json:"year"`
}

// MatchResult is the outcome of reconciling the extracted identity
// against the claimed one. Mismatches block automatic acceptance;
// warnings are informational. IsValid is true iff Mismatches is empty.
type MatchResult struct {
	IsValid    bool     `json:"is_valid"`
	Mismatches []string `json:"mismatches"`
	Warnings   []string `json:"warnings"`
}

// Verdict is the three-way admission decision the approval workflow
// consumes.
type Verdict string

const (
	VerdictAccept       Verdict = "accepted"
	VerdictManualReview Verdict = "manual_review"
	VerdictReject       Verdict = "rejected"
)
