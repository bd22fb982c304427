package entities

// PrescriptionGroup gathers every prescription issued by one doctor.
// It is derived on each request and owns nothing beyond its slice.
type PrescriptionGroup struct {
	DoctorID    int            `json:"doctorId"`
	DoctorName  string         `json:"doctorName"`
	Records     []Prescription `json:"records"`
	Latest      Prescription   `json:"latest"`
	ActiveCount int            `json:"activeCount"`
	TotalCount  int            `json:"totalCount"`
}
