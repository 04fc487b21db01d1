package dto

type RunMigrationRequest struct {
	Scope      string `json:"scope"`       // logical bucket name or "all"
	VerifyOnly bool   `json:"verify_only"` // re-verify migrated records without uploading
}

type RunMigrationResponse struct {
	RunID string `json:"run_id"`
	Scope string `json:"scope"`
}

type CandidateReport struct {
	Location string `json:"location"`
	Exists   bool   `json:"exists"`
	Error    string `json:"error,omitempty"`
}

type InspectReferenceResponse struct {
	Reference  string            `json:"reference"`
	Kind       string            `json:"kind"`
	Bucket     string            `json:"bucket"`
	Filename   string            `json:"filename"`
	Canonical  string            `json:"canonical,omitempty"`
	Candidates []CandidateReport `json:"candidates"`
}
