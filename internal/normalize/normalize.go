package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"campusid/internal/models"
)

// FieldKind selects the normalization rule applied to a raw OCR value.
type FieldKind string

const (
	KindName           FieldKind = "name"
	KindRegisterNumber FieldKind = "register_number"
	KindUniversity     FieldKind = "university"
	KindDepartment     FieldKind = "department"
	KindCourse         FieldKind = "course"
	KindDate           FieldKind = "date"
	KindBloodGroup     FieldKind = "blood_group"
	KindEmail          FieldKind = "email"
	KindPhone          FieldKind = "phone"
	KindAddress        FieldKind = "address"
)

// DefaultCountryCode is prefixed to bare 10-digit phone numbers.
var DefaultCountryCode = "+91"

var (
	multiSpaceRe = regexp.MustCompile(`\s+`)
	nonAlnumRe   = regexp.MustCompile(`[^A-Za-z0-9]+`)
	nonLetterRe  = regexp.MustCompile(`[^A-Za-z\s]+`)
	nonAddressRe = regexp.MustCompile(`[^A-Za-z0-9\s,.\-/]+`)
	nonBloodRe   = regexp.MustCompile(`[^ABO+\-]+`)
	nonPhoneRe   = regexp.MustCompile(`[^0-9]+`)
	emailRe      = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	dateSplitRe  = regexp.MustCompile(`[/\-.]`)
)

var validBloodGroups = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"O+": true, "O-": true, "AB+": true, "AB-": true,
}

// courseTable maps common abbreviations seen on campus ID cards to the
// canonical program name. Unknown abbreviations pass through verbatim.
var courseTable = map[string]string{
	"cse":   "Computer Science Engineering",
	"cs":    "Computer Science Engineering",
	"it":    "Information Technology",
	"ece":   "Electronics and Communication Engineering",
	"eee":   "Electrical and Electronics Engineering",
	"mech":  "Mechanical Engineering",
	"civil": "Civil Engineering",
	"aids":  "Artificial Intelligence and Data Science",
	"aiml":  "Artificial Intelligence and Machine Learning",
	"bba":   "Bachelor of Business Administration",
	"bcom":  "Bachelor of Commerce",
	"mba":   "Master of Business Administration",
	"btech": "Bachelor of Technology",
	"mtech": "Master of Technology",
}

// normalizers is the per-kind rule table. Every function is pure and
// total: unparsable input degrades to an empty or verbatim value, it
// never errors.
var normalizers = map[FieldKind]func(string) string{
	KindName:           Name,
	KindRegisterNumber: RegisterNumber,
	KindUniversity:     Name,
	KindDepartment:     Course,
	KindCourse:         Course,
	KindDate:           Date,
	KindBloodGroup:     BloodGroup,
	KindEmail:          Email,
	KindPhone:          Phone,
	KindAddress:        Address,
}

// Field applies the rule for kind to raw. Kinds without a registered
// rule get whitespace-trimmed passthrough.
func Field(kind FieldKind, raw string) string {
	if fn, ok := normalizers[kind]; ok {
		return fn(raw)
	}
	return strings.TrimSpace(raw)
}

// Name strips non-letters, collapses whitespace and title-cases each word.
func Name(raw string) string {
	s := nonLetterRe.ReplaceAllString(raw, " ")
	s = strings.TrimSpace(multiSpaceRe.ReplaceAllString(s, " "))
	if s == "" {
		return ""
	}
	words := strings.Split(strings.ToLower(s), " ")
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// RegisterNumber strips everything non-alphanumeric and uppercases.
func RegisterNumber(raw string) string {
	return strings.ToUpper(nonAlnumRe.ReplaceAllString(raw, ""))
}

// Date re-emits D/M/Y or D-M-Y (or already-canonical Y-M-D) input as
// YYYY-MM-DD. Unparsable input passes through unchanged so a reviewer
// can still see the raw OCR text.
func Date(raw string) string {
	s := strings.TrimSpace(raw)
	parts := dateSplitRe.Split(s, -1)
	if len(parts) != 3 {
		return s
	}
	var d, m, y string
	if len(parts[0]) == 4 {
		y, m, d = parts[0], parts[1], parts[2]
	} else {
		d, m, y = parts[0], parts[1], parts[2]
	}
	day, errD := strconv.Atoi(d)
	mon, errM := strconv.Atoi(m)
	year, errY := strconv.Atoi(y)
	if errD != nil || errM != nil || errY != nil {
		return s
	}
	if year < 100 {
		year += 2000
	}
	if mon < 1 || mon > 12 || day < 1 || day > 31 {
		return s
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, mon, day)
}

// BloodGroup uppercases and strips everything outside A/B/O/+/-. If the
// result is not one of the eight valid groups the original string is
// kept as a courtesy-preserving fallback.
func BloodGroup(raw string) string {
	s := nonBloodRe.ReplaceAllString(strings.ToUpper(raw), "")
	if validBloodGroups[s] {
		return s
	}
	return strings.TrimSpace(raw)
}

// Email lowercases and trims; values failing the address pattern are
// returned unchanged, not discarded.
func Email(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if emailRe.MatchString(s) {
		return s
	}
	return strings.TrimSpace(raw)
}

// Phone strips all but digits and a leading +. A bare 10-digit number is
// assumed domestic and prefixed with the country calling code.
func Phone(raw string) string {
	s := strings.TrimSpace(raw)
	plus := strings.HasPrefix(s, "+")
	digits := nonPhoneRe.ReplaceAllString(s, "")
	if digits == "" {
		return ""
	}
	if plus {
		return "+" + digits
	}
	if len(digits) == 10 {
		return DefaultCountryCode + digits
	}
	return digits
}

// Address collapses whitespace and strips characters outside
// letters/digits/`,.-`.
func Address(raw string) string {
	s := nonAddressRe.ReplaceAllString(raw, " ")
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(s, " "))
}

// Course resolves a department/course abbreviation to its canonical
// name; unknown values pass through verbatim (trimmed).
func Course(raw string) string {
	s := strings.TrimSpace(raw)
	key := strings.ToLower(nonAlnumRe.ReplaceAllString(s, ""))
	if full, ok := courseTable[key]; ok {
		return full
	}
	return s
}

// Identity runs every raw field through its rule and derives the
// academic year from the validity date.
func Identity(raw models.RawExtraction) models.NormalizedIdentity {
	get := func(key string, kind FieldKind) string {
		return Field(kind, raw.Fields[key])
	}
	id := models.NormalizedIdentity{
		Name:             get(models.FieldName, KindName),
		RegisterNumber:   get(models.FieldRegisterNumber, KindRegisterNumber),
		University:       get(models.FieldUniversity, KindUniversity),
		Department:       get(models.FieldDepartment, KindDepartment),
		Course:           get(models.FieldCourse, KindCourse),
		ValidityDate:     get(models.FieldValidityDate, KindDate),
		DateOfIssue:      get(models.FieldDateOfIssue, KindDate),
		DateOfBirth:      get(models.FieldDateOfBirth, KindDate),
		BloodGroup:       get(models.FieldBloodGroup, KindBloodGroup),
		Email:            get(models.FieldEmail, KindEmail),
		ContactNumber:    get(models.FieldContactNumber, KindPhone),
		Address:          get(models.FieldAddress, KindAddress),
		PermanentAddress: get(models.FieldPermanentAddress, KindAddress),
		EmergencyContact: get(models.FieldEmergencyContact, KindPhone),
	}
	id.InferredYear = InferYearNow(id.ValidityDate)
	return id
}
