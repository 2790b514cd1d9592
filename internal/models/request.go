package models

// Request is the typed action a classified intent routes to. Exactly one of
// RecordRequest, SearchRequest or ListActiveRequest.
type Request interface {
	requestKind() string
}

// RecordRequest asks for a new service record to be created.
type RecordRequest struct {
	Fields ServiceFields
}

// SearchRequest asks for existing service records matching the extracted
// filters.
type SearchRequest struct {
	Fields ServiceFields
}

// ListActiveRequest asks for all service records still marked active.
type ListActiveRequest struct{}

func (RecordRequest) requestKind() string     { return "record" }
func (SearchRequest) requestKind() string     { return "search" }
func (ListActiveRequest) requestKind() string { return "list_active" }
