package report_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/modelgraph/internal/report"
	"github.com/vk/modelgraph/internal/testutil"
)

const summaryModel = `
component "source" {
	output "y" {
		shape = [3]
		units = "m"
	}
}
component "sink" {
	input "x" {
		shape_by_conn = true
		units = "m"
	}
}
component "loose" {
	input "z" {
		value = 2
	}
}
connect {
	source      = "source.y"
	targets     = ["sink.x"]
	src_indices = [0, 2]
}
`

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	res := testutil.MustResolve(t, summaryModel)

	var buf bytes.Buffer
	require.NoError(t, report.WriteSummary(&buf, res))
	out := buf.String()

	assert.Contains(t, out, "VARIABLES")
	assert.Contains(t, out, "source.y")
	assert.Contains(t, out, "shape=(3)")
	assert.Contains(t, out, "units=m")
	assert.Contains(t, out, "CONNECTIONS")
	assert.Contains(t, out, "-> sink.x")
	assert.Contains(t, out, "src_indices=[0 2]")
	assert.Contains(t, out, "AUTO SOURCES")
	assert.Contains(t, out, "_auto_ivc.v0 feeds 'loose.z'")
}

func TestWriteGraphJSON(t *testing.T) {
	t.Parallel()

	res := testutil.MustResolve(t, summaryModel)

	var buf bytes.Buffer
	require.NoError(t, report.WriteGraphJSON(&buf, res))

	var decoded struct {
		Nodes []struct {
			Path   string `json:"path"`
			Status string `json:"status"`
		} `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	statuses := make(map[string]string)
	for _, n := range decoded.Nodes {
		statuses[n.Path] = n.Status
	}
	assert.Equal(t, "static", statuses["source.y"])
	assert.Equal(t, "resolved", statuses["sink.x"])
}
