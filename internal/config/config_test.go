package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "file", c.Source.Kind)
	assert.Equal(t, "table", c.Output.Format)
	assert.Equal(t, "file", c.Output.ManifestSink)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	require.NoError(t, c.Validate())
}

func TestParse_OverlaysExistingValues(t *testing.T) {
	c := Default()
	c.Output.Sort = "name"
	data := []byte(`
source:
  kind: postgres
  postgresUrl: postgres://picklist@localhost/shop
kafka:
  bootstrap: localhost:9092
output:
  format: csv
  quote: true
log:
  level: debug
`)
	require.NoError(t, Parse(data, &c))
	assert.Equal(t, "postgres", c.Source.Kind)
	assert.Equal(t, "csv", c.Output.Format)
	assert.True(t, c.Output.Quote)
	assert.Equal(t, "name", c.Output.Sort)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)
	assert.Equal(t, "picklist.orders", c.Kafka.OrdersTopic)
	require.NoError(t, c.Validate())
}

func TestParse_Broken(t *testing.T) {
	c := Default()
	assert.Error(t, Parse([]byte("source: [unclosed"), &c))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picklist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: \":9090\"\n"), 0o644))
	c := Default()
	require.NoError(t, LoadFile(path, &c))
	assert.Equal(t, ":9090", c.HTTP.Addr)

	assert.Error(t, LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &c))
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Source.Kind = "postgres"
	c.Output.Format = "xml"
	c.Output.PublishSink = "kafka"
	c.Output.ManifestSink = "carrier-pigeon"
	err := c.Validate()
	require.Error(t, err)
	for _, want := range []string{"postgresUrl", "output.format", "output.publishSink", "output.manifestSink"} {
		assert.Contains(t, err.Error(), want)
	}

	c = Default()
	c.Output.ManifestSink = ""
	assert.Error(t, c.Validate())

	c = Default()
	c.Kafka.Bootstrap = "localhost:9092"
	c.Output.PublishSink = "both"
	c.Output.ManifestSink = "both"
	assert.NoError(t, c.Validate())
}
