package models

import "time"

// EnquiryStatus is the two-state lifecycle of an admission application.
type EnquiryStatus string

const (
	StatusPending  EnquiryStatus = "Pending"
	StatusApproved EnquiryStatus = "Approved"
)

// MarksTenth captures the 10th standard academic record.
type MarksTenth struct {
	Total   string `json:"total"`
	Maths   string `json:"maths"`
	Science string `json:"science"`
}

// MarksEleventh captures the 11th standard academic record.
type MarksEleventh struct {
	Total     string `json:"total"`
	PhyEco    string `json:"phyEco"`
	CheComm   string `json:"cheComm"`
	MathsAccs string `json:"mathsAccs"`
	CompBio   string `json:"compBio"`
}

// MarksTwelfth captures the 12th standard academic record including the
// derived engineering cutoff, stored denormalized alongside the raw marks.
type MarksTwelfth struct {
	Total     string `json:"total"`
	PhyEco    string `json:"phyEco"`
	CheComm   string `json:"cheComm"`
	MathsAccs string `json:"mathsAccs"`
	CompBio   string `json:"compBio"`
	RegNo     string `json:"regNo"`
	Cutoff    string `json:"cutoff"`
}

// EnquiryPayload is the full application profile captured by the admission
// form. It is persisted as a JSON document next to the flattened columns the
// dashboard queries directly.
type EnquiryPayload struct {
	Date             string `json:"date"`
	Institution      string `json:"institution"`
	Course           string `json:"course"`
	StudentName      string `json:"studentName" validate:"required"`
	Gender           string `json:"gender"`
	DOB              string `json:"dob"`
	AadhaarNo        string `json:"aadhaarNo"`
	Quota            string `json:"quota"`
	FatherName       string `json:"fatherName"`
	FatherOccupation string `json:"fatherOccupation"`
	MotherName       string `json:"motherName"`
	MotherOccupation string `json:"motherOccupation"`
	AnnualIncome     string `json:"annualIncome"`
	Community        string `json:"community"`
	District         string `json:"district"`
	Address          string `json:"address"`
	Pincode          string `json:"pincode"`
	Phone1           string `json:"phone1"`
	Phone2           string `json:"phone2"`
	Phone3           string `json:"phone3"`
	SchoolName       string `json:"schoolName"`
	SchoolType       string `json:"schoolType"`
	BoardOfStudy     string `json:"boardOfStudy"`
	Medium           string `json:"mediumOfInstruction"`

	Marks10th MarksTenth    `json:"marks10th"`
	Marks11th MarksEleventh `json:"marks11th"`
	Marks12th MarksTwelfth  `json:"marks12th"`

	FirstGrad string `json:"firstGrad"`
	PMSS      string `json:"pmss"`
	Laptop    string `json:"laptop"`
	Bus       string `json:"bus"`
	BusPoint  string `json:"busPoint"`
	Hostel    string `json:"hostel"`
}

// Enquiry is one admission application. Identity fields are immutable after
// submission; status is the only field mutated afterwards.
type Enquiry struct {
	ID          int64         `db:"id" json:"id"`
	AppNumber   string        `db:"app_number" json:"appNumber"`
	StudentName string        `db:"student_name" json:"studentName"`
	Date        string        `db:"date" json:"date"`
	Institution string        `db:"institution" json:"institution"`
	Course      string        `db:"course" json:"course"`
	Phone1      string        `db:"phone1" json:"phone1"`
	Status      EnquiryStatus `db:"status" json:"status"`
	FullData    []byte        `db:"full_data" json:"-"`
	SubmittedAt time.Time     `db:"submitted_at" json:"submittedAt"`

	// Payload is the decoded form of FullData, populated on reads.
	Payload EnquiryPayload `db:"-" json:"payload"`
}

// RecordKey is the identifier comments are filed under: the application
// number, or the numeric id when the number is absent.
func (e *Enquiry) RecordKey() string {
	if e.AppNumber != "" {
		return e.AppNumber
	}
	return formatID(e.ID)
}
