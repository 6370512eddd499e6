package runner

// QueryItem is one page consultation in a work order. Interpol lookups
// additionally carry the split surname/name fields the source expects.
type QueryItem struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Surnames string `json:"surnames,omitempty"`
	Names    string `json:"names,omitempty"`
}

// StartJobRequest is the payload handed to the runner when a process is
// dispatched.
type StartJobRequest struct {
	Headless       bool        `json:"headless"`
	GenerateReport bool        `json:"generate_report"`
	Items          []QueryItem `json:"items"`
}
