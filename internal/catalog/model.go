package catalog

import (
	"encoding/json"
	"time"
)

// Collections served from the documents table.
var Collections = []string{
	"products", "banners", "notices", "offers", "bespoke-services", "partners",
	"product-requests", "reviews", "fabrics", "gift-cards", "upcoming", "config",
}

// customerWritable collections accept new records from any signed-in user.
var customerWritable = map[string]bool{
	"product-requests": true,
	"reviews":          true,
}

func Known(collection string) bool {
	for _, c := range Collections {
		if c == collection {
			return true
		}
	}
	return false
}

// Document is one schemaless catalog record. It is sent over the wire as
// its data object with id and timestamps folded in.
type Document struct {
	Collection string
	ID         string
	Data       map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// reserved keys are owned by the server and never stored inside data.
var reserved = []string{"id", "_isNew", "createdAt", "updatedAt"}

func stripReserved(data map[string]any) {
	for _, k := range reserved {
		delete(data, k)
	}
}

func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Data)+3)
	for k, v := range d.Data {
		out[k] = v
	}
	out["id"] = d.ID
	out["createdAt"] = d.CreatedAt
	out["updatedAt"] = d.UpdatedAt
	return json.Marshal(out)
}
