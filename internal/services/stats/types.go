package stats

// PageVolume is one entry of the top-pages ranking.
type PageVolume struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Consults int64  `json:"consults"`
}

// Report is a point-in-time rollup over clients, processes, and
// consults.
type Report struct {
	TotalClients      int64            `json:"total_clients"`
	TotalProcesses    int64            `json:"total_processes"`
	ClientsByStatus   map[string]int64 `json:"clients_by_status"`
	ProcessesByStatus map[string]int64 `json:"processes_by_status"`
	TopPages          []PageVolume     `json:"top_pages"`
}
