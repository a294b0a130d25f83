package sui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebikillmachin/SUI/internal/domain"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers JSON-RPC calls with canned results keyed by method.
func fakeNode(t *testing.T, results map[string]string, seen chan<- rpcRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if seen != nil {
			seen <- req
		}
		result, ok := results[req.Method]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":{"code":-32601,"message":"method not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialFake(t *testing.T, url string) *Client {
	t.Helper()
	c, err := Dial(context.Background(), url, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestMultiGetObjects(t *testing.T) {
	seen := make(chan rpcRequest, 1)
	srv := fakeNode(t, map[string]string{
		"sui_multiGetObjects": `[
			{"data":{"objectId":"0xa","version":"3","digest":"d","type":"0xp::market::Market<0x2::sui::SUI>",
			 "content":{"dataType":"moveObject","type":"0xp::market::Market<0x2::sui::SUI>","fields":{"fee_bps":"30"}}}},
			{"error":{"code":"deleted","object_id":"0xb"}}
		]`,
	}, seen)
	c := dialFake(t, srv.URL)

	objs, err := c.MultiGetObjects(context.Background(), []string{"0xa", "0xb"})
	require.NoError(t, err)
	require.Len(t, objs, 2)

	req := <-seen
	assert.Equal(t, "sui_multiGetObjects", req.Method)
	require.Len(t, req.Params, 2)
	assert.JSONEq(t, `["0xa","0xb"]`, string(req.Params[0]))
	assert.JSONEq(t, `{"showType":true,"showContent":true}`, string(req.Params[1]))

	require.NotNil(t, objs[0].Data)
	bag, ok := objs[0].Data.Content.FieldBag()
	require.True(t, ok)
	assert.JSONEq(t, `"30"`, string(bag["fee_bps"]))
	assert.Nil(t, objs[1].Data)
	assert.Equal(t, "deleted", objs[1].Error.Code)
}

func TestMultiGetObjectsEmptySkipsCall(t *testing.T) {
	c := dialFake(t, "http://127.0.0.1:1")
	objs, err := c.MultiGetObjects(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestGetOwnedObjectsSendsStructFilter(t *testing.T) {
	seen := make(chan rpcRequest, 1)
	srv := fakeNode(t, map[string]string{
		"suix_getOwnedObjects": `{"data":[],"nextCursor":null,"hasNextPage":false}`,
	}, seen)
	c := dialFake(t, srv.URL)

	page, err := c.GetOwnedObjects(context.Background(), "0xowner", "0xp::market::Position<0x2::sui::SUI>")
	require.NoError(t, err)
	assert.False(t, page.HasNextPage)

	req := <-seen
	require.Len(t, req.Params, 4)
	assert.JSONEq(t, `"0xowner"`, string(req.Params[0]))
	assert.JSONEq(t, `{"filter":{"StructType":"0xp::market::Position<0x2::sui::SUI>"},
		"options":{"showType":true,"showContent":true}}`, string(req.Params[1]))
}

func TestExecuteTransactionBlock(t *testing.T) {
	seen := make(chan rpcRequest, 1)
	srv := fakeNode(t, map[string]string{
		"sui_executeTransactionBlock": `{"digest":"Abc","effects":{"status":{"status":"failure","error":"MoveAbort(..., 3)"}}}`,
	}, seen)
	c := dialFake(t, srv.URL)

	resp, err := c.ExecuteTransactionBlock(context.Background(),
		SignedTransaction{TxBytes: "AAE=", Signatures: []string{"sig"}},
		ExecuteOptions{ShowEffects: true, ShowEvents: true}, WaitForLocalExecution)
	require.NoError(t, err)
	assert.Equal(t, "Abc", resp.Digest)
	assert.Equal(t, "failure", resp.Effects.Status.Status)

	req := <-seen
	require.Len(t, req.Params, 4)
	assert.JSONEq(t, `{"showEffects":true,"showEvents":true}`, string(req.Params[2]))
}

func TestRPCErrorPropagates(t *testing.T) {
	srv := fakeNode(t, map[string]string{}, nil)
	c := dialFake(t, srv.URL)
	_, err := c.GetChainIdentifier(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not found")
}

func TestHTTPStatusMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)
	c := dialFake(t, srv.URL)

	_, err := c.GetObject(context.Background(), "0x1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestChainIdentifierTable(t *testing.T) {
	id, ok := ChainIdentifier("testnet")
	assert.True(t, ok)
	assert.Equal(t, "4c78adac", id)
	_, ok = ChainIdentifier("devnet")
	assert.False(t, ok)
}
