// Package projection turns raw ledger objects into the typed domain model.
// Projection never fails a batch because of one bad object: malformed or
// unexpected entries are dropped (markets) or defaulted (owned objects).
package projection

import (
	"context"

	"github.com/sebikillmachin/SUI/internal/platform/sui"
)

// ObjectReader is the subset of the full-node read API projection needs.
type ObjectReader interface {
	GetObject(ctx context.Context, id string) (sui.ObjectResponse, error)
	MultiGetObjects(ctx context.Context, ids []string) ([]sui.ObjectResponse, error)
	GetOwnedObjects(ctx context.Context, owner, structType string) (sui.OwnedObjectsPage, error)
}

// moveFields returns the field bag of a structured Move object together with
// its type string. ok is false for missing objects and non-struct content.
func moveFields(obj sui.ObjectResponse) (f fields, objType string, ok bool) {
	if obj.Data == nil || obj.Data.Content == nil {
		return nil, "", false
	}
	c := obj.Data.Content
	if c.DataType != sui.DataTypeMoveObject {
		return nil, "", false
	}
	bag, ok := c.FieldBag()
	if !ok {
		return nil, "", false
	}
	objType = c.Type
	if objType == "" {
		objType = obj.Data.Type
	}
	return fields(bag), objType, true
}

func skipReason(obj sui.ObjectResponse) string {
	switch {
	case obj.Error != nil:
		return obj.Error.Code
	case obj.Data == nil:
		return "missing data"
	case obj.Data.Content == nil:
		return "missing content"
	case obj.Data.Content.DataType != sui.DataTypeMoveObject:
		return "content kind " + obj.Data.Content.DataType
	default:
		return "malformed fields"
	}
}
