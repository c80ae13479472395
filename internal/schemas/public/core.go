// package public contains structs that are served to HTTP API clients and the CLI.
// They carry no message content, passwords, or connection handles.
package public

// Status is the presence snapshot served at /api/v1/status
type Status struct {
	Online    int      `json:"online"`
	Nicknames []string `json:"nicknames"`
}

// EventCount is one row of the audit summary: how often a relay event kind ended in an outcome
type EventCount struct {
	Kind    string `json:"kind"`
	Outcome string `json:"outcome"`
	Count   int64  `json:"count"`
}

// Stats is the audit summary served at /api/v1/stats
type Stats struct {
	Total  int64        `json:"total"`
	Events []EventCount `json:"events"`
}
