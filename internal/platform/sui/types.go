package sui

import (
	"encoding/json"
)

// ObjectDataOptions selects which parts of an object the node returns.
type ObjectDataOptions struct {
	ShowType    bool `json:"showType,omitempty"`
	ShowContent bool `json:"showContent,omitempty"`
	ShowOwner   bool `json:"showOwner,omitempty"`
}

// ObjectResponse is one entry of sui_getObject / sui_multiGetObjects.
type ObjectResponse struct {
	Data  *ObjectData  `json:"data,omitempty"`
	Error *ObjectError `json:"error,omitempty"`
}

// ObjectError is returned in place of Data for deleted or missing objects.
type ObjectError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id,omitempty"`
}

// ObjectData is the object payload.
type ObjectData struct {
	ObjectID string       `json:"objectId"`
	Version  string       `json:"version"`
	Digest   string       `json:"digest"`
	Type     string       `json:"type,omitempty"`
	Content  *MoveContent `json:"content,omitempty"`
}

// MoveContent is the parsed content of an object. Fields is kept raw so a
// single malformed object cannot fail decoding of a whole batch.
type MoveContent struct {
	DataType          string          `json:"dataType"`
	Type              string          `json:"type,omitempty"`
	HasPublicTransfer bool            `json:"hasPublicTransfer,omitempty"`
	Fields            json.RawMessage `json:"fields,omitempty"`
}

// DataTypeMoveObject marks structured Move object content.
const DataTypeMoveObject = "moveObject"

// FieldBag decodes Fields into a name -> raw value map. ok is false when the
// content carries no field object.
func (c *MoveContent) FieldBag() (map[string]json.RawMessage, bool) {
	if c == nil || len(c.Fields) == 0 {
		return nil, false
	}
	var bag map[string]json.RawMessage
	if err := json.Unmarshal(c.Fields, &bag); err != nil || bag == nil {
		return nil, false
	}
	return bag, true
}

// OwnedObjectsQuery is the query argument of suix_getOwnedObjects.
type OwnedObjectsQuery struct {
	Filter  *ObjectFilter      `json:"filter,omitempty"`
	Options *ObjectDataOptions `json:"options,omitempty"`
}

// ObjectFilter narrows an owned-objects query.
type ObjectFilter struct {
	StructType string `json:"StructType,omitempty"`
}

// OwnedObjectsPage is one page of suix_getOwnedObjects.
type OwnedObjectsPage struct {
	Data        []ObjectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor,omitempty"`
	HasNextPage bool             `json:"hasNextPage"`
}

// ExecuteOptions selects what sui_executeTransactionBlock echoes back.
type ExecuteOptions struct {
	ShowEffects        bool `json:"showEffects,omitempty"`
	ShowEvents         bool `json:"showEvents,omitempty"`
	ShowObjectChanges  bool `json:"showObjectChanges,omitempty"`
	ShowBalanceChanges bool `json:"showBalanceChanges,omitempty"`
}

// Request types for sui_executeTransactionBlock.
const (
	WaitForEffectsCert    = "WaitForEffectsCert"
	WaitForLocalExecution = "WaitForLocalExecution"
)

// SignedTransaction is what a signer hands back: base64 BCS transaction
// bytes and one or more base64 serialized signatures.
type SignedTransaction struct {
	TxBytes    string   `json:"bytes"`
	Signatures []string `json:"signatures"`
}

// TransactionBlockResponse is the result of sui_executeTransactionBlock.
type TransactionBlockResponse struct {
	Digest                  string              `json:"digest"`
	Effects                 *TransactionEffects `json:"effects,omitempty"`
	Events                  []Event             `json:"events,omitempty"`
	Errors                  []string            `json:"errors,omitempty"`
	ConfirmedLocalExecution *bool               `json:"confirmedLocalExecution,omitempty"`
}

// TransactionEffects carries the execution status.
type TransactionEffects struct {
	Status          ExecutionStatus `json:"status"`
	TransactionHash string          `json:"transactionDigest,omitempty"`
}

// ExecutionStatus is "success" or "failure" with an abort message.
type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// StatusSuccess is the effects status of a transaction that executed.
const StatusSuccess = "success"

// Event is an emitted Move event.
type Event struct {
	ID struct {
		TxDigest string `json:"txDigest"`
		EventSeq string `json:"eventSeq"`
	} `json:"id"`
	PackageID         string          `json:"packageId"`
	TransactionModule string          `json:"transactionModule"`
	Sender            string          `json:"sender"`
	Type              string          `json:"type"`
	ParsedJSON        json.RawMessage `json:"parsedJson,omitempty"`
}
