package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	out := format([]byte(`{"type":"ingest.completed","run_id":"r1","stats":{"total":3,"new_books":2,"duplicates":1}}`), false)
	require.True(t, strings.HasPrefix(out, "run r1 ok: 3 listings, 2 new, 1 duplicates\n"))

	out = format([]byte(`{"type":"ingest.failed","run_id":"r2","error":"boom"}`), true)
	require.Contains(t, out, "run r2 FAILED: boom")
	require.Contains(t, out, "\n  \"error\": \"boom\"")

	require.Equal(t, "not json", format([]byte("not json"), true))
}
