package ocr

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"campusid/internal/models"
)

// MockProvider is the credential-free fallback. It produces a
// structurally valid extraction derived deterministically from the
// front image reference, so the same ref always yields the same card
// and the rest of the pipeline can run offline.
type MockProvider struct {
	// Confidence of every mock extraction. Defaults to 0.95.
	Confidence float64
}

func NewMockProvider() *MockProvider {
	return &MockProvider{Confidence: 0.95}
}

var mockStudents = []struct {
	name    string
	course  string
	blood   string
	address string
}{
	{"ARSHIYA KAPIL", "cse", "B +ve", "12, MG Road, Chennai"},
	{"ROHAN S MEHTA", "ece", "O+", "4/21 Nehru Street, Coimbatore"},
	{"PRIYA NAIR", "it", "A-", "88 Lake View Colony, Kochi"},
	{"ADITYA RAO", "mech", "AB+", "17 Station Road, Mysuru"},
}

func (p *MockProvider) Extract(_ context.Context, frontImageRef, backImageRef string) (models.RawExtraction, error) {
	h := fnv.New32a()
	h.Write([]byte(frontImageRef))
	seed := h.Sum32()

	student := mockStudents[seed%uint32(len(mockStudents))]
	reg := fmt.Sprintf("10324%06d", seed%1000000)
	validity := time.Now().AddDate(int(seed%4)+1, 0, 0)

	fields := map[string]string{
		models.FieldName:           student.name,
		models.FieldRegisterNumber: reg,
		models.FieldDepartment:     student.course,
		models.FieldCourse:         student.course,
		models.FieldValidityDate:   validity.Format("02/01/2006"),
		models.FieldDateOfIssue:    validity.AddDate(-4, 0, 0).Format("02/01/2006"),
		models.FieldBloodGroup:     student.blood,
	}
	if backImageRef != "" {
		fields[models.FieldDateOfBirth] = "02/01/2006"
		fields[models.FieldEmail] = "student@example.edu"
		fields[models.FieldContactNumber] = "98765 43210"
		fields[models.FieldAddress] = student.address
		fields[models.FieldPermanentAddress] = student.address
		fields[models.FieldEmergencyContact] = "+91 91234 56780"
	}

	conf := p.Confidence
	if conf <= 0 || conf > 1 {
		conf = 0.95
	}
	return models.RawExtraction{Fields: fields, Confidence: conf}, nil
}
