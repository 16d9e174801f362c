package dto

// StudentImportRow is one raw record handed over by the file parser.
type StudentImportRow struct {
	Row         int    `json:"row"`
	StudentID   string `json:"studentId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Grade       string `json:"grade"`
	Section     string `json:"section"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
}

// StudentImportRequest is the JSON body accepted by the bulk import endpoint.
type StudentImportRequest struct {
	Rows []StudentImportRow `json:"rows"`
}

// ImportFailure describes one rejected row.
type ImportFailure struct {
	Row       int    `json:"row"`
	StudentID string `json:"studentId,omitempty"`
	Reason    string `json:"reason"`
	Code      string `json:"code,omitempty"`
}

// ImportResult summarises a bulk import. Failed is ordered by row.
type ImportResult struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    []ImportFailure `json:"failed"`
}
