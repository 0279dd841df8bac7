package query

// SortSpec names the sort stage.
type SortSpec struct {
	Field   string `json:"field"`
	Reverse bool   `json:"reverse"`
}

// Request is the declarative part of a query: what to keep and how to order
// it.
type Request struct {
	Filter *Node     `json:"filter,omitempty"`
	Sort   *SortSpec `json:"sort,omitempty"`
	// Latest keeps only the newest version per asset.
	Latest bool `json:"latest,omitempty"`
}

// Result is one page of a query.
type Result struct {
	Data     []Record `json:"data"`
	PageInfo PageInfo `json:"page_info"`
}

// Run compiles req and applies filter, latest, sort and pagination in that
// order. records is not modified.
func Run(records []Record, req Request, page, limit int) (Result, error) {
	pred, err := Compile(req.Filter)
	if err != nil {
		return Result{}, err
	}
	kept := Filter(records, pred)
	if req.Latest {
		kept = KeepLatest(kept)
	}
	field, reverse := "", false
	if req.Sort != nil {
		field, reverse = req.Sort.Field, req.Sort.Reverse
	}
	Sort(kept, field, reverse)
	data, info := Paginate(kept, page, limit)
	return Result{Data: data, PageInfo: info}, nil
}
